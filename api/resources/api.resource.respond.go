// FilePath: api/resources/api.resource.respond.go
package resources

import (
	"encoding/json"
	"net/http"

	"github.com/fieldpulse/pipeline/internal/errors"
	nuts "github.com/vaudience/go-nuts"
)

// Message is the body of plain informational answers such as 404s
type Message struct {
	Message string `json:"message"`
}

func respondWithError(w http.ResponseWriter, err *errors.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Code)
	json.NewEncoder(w).Encode(err)
	nuts.L.Errorf("[API] %s", err.Error())
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

func respondWithMessage(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, Message{Message: message})
}
