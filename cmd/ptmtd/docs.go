package main

// General API documentation for swaggo. Run `make swagger-gen` to generate docs.
//
// @title           PTMT backend API
// @version         1.0
// @description     HTTP API for curriculum generation and API key slot scheduling.
//
// @contact.name   PTMT maintainers
// @contact.url    https://github.com/AI-gora-Boostcamp-AI-Tech-8-NLP-02/PTMT-Backend
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
