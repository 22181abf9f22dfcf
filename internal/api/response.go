package api

import (
	"encoding/json"
	"net/http"
)

func writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error  string `json:"error"`
	Status string `json:"status"`
}

func writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	writeJSONResponse(w, statusCode, ErrorResponse{Error: message, Status: "error"})
}

func writeBadRequestResponse(w http.ResponseWriter, message string) {
	writeErrorResponse(w, http.StatusBadRequest, message)
}

func writeNotFoundResponse(w http.ResponseWriter, message string) {
	writeErrorResponse(w, http.StatusNotFound, message)
}

func writeInternalServerErrorResponse(w http.ResponseWriter, message string) {
	writeErrorResponse(w, http.StatusInternalServerError, message)
}
