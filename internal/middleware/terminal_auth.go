package middleware

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/MisterMaquinas/Ponto-Dom-sub000/internal/shared/contextutil"
	"github.com/MisterMaquinas/Ponto-Dom-sub000/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// TerminalAuth validates the signed token a punch terminal presents and
// loads its identity (company, branch, terminal id) into the request.
// Operator login itself is handled by the main application; the terminal
// token is minted there when the punch kiosk screen opens.
func TerminalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found {
			tokenString = ""
		}

		if tokenString == "" {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Terminal token not found", nil)
			c.Abort()
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return []byte(os.Getenv("JWT_SECRET")), nil
		})

		if err != nil || !token.Valid {
			code, msg := "INVALID_TOKEN", "Invalid terminal token"
			if err != nil && strings.Contains(err.Error(), "expired") {
				code, msg = "TOKEN_EXPIRED", "Terminal token expired"
			}
			response.Error(c, http.StatusUnauthorized, code, msg, nil)
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid token claims", nil)
			c.Abort()
			return
		}

		companyID, _ := claims["company_id"].(string)
		branchID, _ := claims["branch_id"].(string)
		terminalID, _ := claims["terminal_id"].(string)
		operatorID, _ := claims["operator_id"].(string)
		role, _ := claims["role"].(string)

		if companyID == "" || branchID == "" || terminalID == "" {
			response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Token is missing terminal identity", nil)
			c.Abort()
			return
		}

		c.Set("company_id", companyID)
		c.Set("branch_id", branchID)
		c.Set("terminal_id", terminalID)
		c.Set("operator_id", operatorID)
		c.Set("role", role)

		ctx := contextutil.WithTerminalID(c.Request.Context(), terminalID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
