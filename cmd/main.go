// cmd/main.go
package main

import (
	"go-medstore-api/app"
)

// @title           MedStore API
// @version         1.0
// @description     Authentication and session API of the MedStore retail backend.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	app.Run()
}
