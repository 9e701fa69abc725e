package server

// @title chatdock API
// @version 1.0
// @description Local control API for building, running and watching the chatgpt_academic container

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8090
// @BasePath /api
// @schemes http
