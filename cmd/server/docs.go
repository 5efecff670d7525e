package main

//go:generate swag init -g cmd/server/main.go -o docs

// @title           CIC ERP API
// @version         0.1.0
// @description     Contract management, business plan approval workflow, and payment tracking.
// @host            localhost:8080
// @BasePath        /
// @schemes         http
