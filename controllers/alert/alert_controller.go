package alert

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/Erebuzzz/tea-tracker/models"
	"github.com/Erebuzzz/tea-tracker/services"
	"github.com/Erebuzzz/tea-tracker/utils"
)

// AlertController is the manually invokable free-form alert composer.
// It is deliberately method-agnostic at the routing level so it can answer
// its own CORS preflight, mirroring a bare serverless HTTP function.
type AlertController struct {
	config *models.Config
	sender services.Sender
	utils  *utils.Utils
}

type alertRequest struct {
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// New creates an instance of the controller
func New(config *models.Config, sender services.Sender) *AlertController {
	return &AlertController{config: config, sender: sender, utils: utils.New(config)}
}

// SendAlert accepts POST {email, subject, message} and emails the message.
func (a *AlertController) SendAlert(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")

	if r.Method == http.MethodOptions {
		w.Header().Set("Access-Control-Allow-Methods", "POST")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxBodySize) // Refuse request with big body

	var req alertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Missing required fields", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Subject == "" || req.Message == "" {
		http.Error(w, "Missing required fields", http.StatusBadRequest)
		return
	}

	if err := a.sender.Send(req.Email, req.Subject, services.FreeformAlertBody(req.Subject, req.Message)); err != nil {
		log.Printf("AlertController: Error sending alert email to %s: %s", req.Email, err.Error())
		http.Error(w, "Error sending alert email", http.StatusInternalServerError)
		return
	}
	// The endpoint is unauthenticated, keep a trace of who triggered it.
	log.Printf("AlertController: Alert email sent to %s, requested by %s", req.Email, a.utils.GetClientIP(r))
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Alert email sent successfully"))
}
