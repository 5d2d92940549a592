package main

import (
	"fmt"
	"net/http"

	"github.com/kerjapay/payroll-backend-go/internal/config"
	appHTTP "github.com/kerjapay/payroll-backend-go/internal/handler/http"
	"github.com/kerjapay/payroll-backend-go/internal/pkg/database"
	"github.com/kerjapay/payroll-backend-go/internal/pkg/jwt"
	"github.com/kerjapay/payroll-backend-go/internal/repository/postgresql"
	payrunService "github.com/kerjapay/payroll-backend-go/internal/service/payrun"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	dsn := cfg.DatabaseURL()
	db, err := database.NewPostgreSQLDB(dsn)
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}
	defer db.Close()

	transactor := postgresql.NewTransactor(db)
	payrunRepo := postgresql.NewPayrunRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	salaryRepo := postgresql.NewSalaryRepository(db)
	attendanceRepo := postgresql.NewAttendanceRepository(db)

	jwtService := jwt.NewJWTService(cfg.JWT.Secret)
	payrunSvc := payrunService.NewPayrunService(transactor, payrunRepo, employeeRepo, salaryRepo, attendanceRepo)

	payrunHandler := appHTTP.NewPayrunHandler(payrunSvc)

	router := appHTTP.NewRouter(cfg, jwtService, payrunHandler)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	fmt.Printf("Server running at http://localhost%s\n", port)
	if err := http.ListenAndServe(port, router); err != nil {
		fmt.Println("Server error:", err)
	}
}
