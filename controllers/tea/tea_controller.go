package tea

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/Erebuzzz/tea-tracker/models"
	"github.com/Erebuzzz/tea-tracker/services"
	"github.com/Erebuzzz/tea-tracker/utils"
	"github.com/asaskevich/EventBus"
	"github.com/gofrs/uuid"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

type TeaController struct {
	db     *gorm.DB
	config *models.Config
	bus    EventBus.Bus
}

type createRequest struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Quantity int    `json:"quantity"`
}

type createResponse struct {
	Tea   *models.Tea           `json:"tea"`
	Limit *services.LimitStatus `json:"limit,omitempty"`
}

// New creates an instance of the controller and sets its DB handle
func New(db *gorm.DB, config *models.Config, bus EventBus.Bus) *TeaController {
	return &TeaController{db: db, config: config, bus: bus}
}

// Create appends a consumption event. The event timestamp is always the
// server's "now": backdating is not supported. After the append commits the
// limit is re-evaluated and returned, and the append event is published for
// the notification path, which runs the exact same evaluation.
func (t *TeaController) Create(w http.ResponseWriter, r *http.Request) {
	var email = r.Context().Value("identity").(string)

	r.Body = http.MaxBytesReader(w, r.Body, t.config.MaxBodySize) // Refuse request with big body

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if req.Quantity <= 0 {
		http.Error(w, "quantity must be a positive integer", http.StatusBadRequest)
		return
	}

	userManager := services.NewUserManager(t.db, t.config)
	user, err := userManager.Get(email)
	if err != nil {
		log.Printf("TeaController: Error fetching user %s: %s", email, err.Error())
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	now := time.Now()
	teaManager := services.NewTeaManager(t.db, t.config)
	tea, err := teaManager.Append(user, req.Name, req.Type, req.Quantity, now)
	if err != nil {
		log.Printf("TeaController: Error appending event for %s: %s", email, err.Error())
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	t.bus.Publish(services.TeaCreatedTopic, tea)

	resp := createResponse{Tea: tea}
	status, err := services.NewLimitMonitor(t.db, t.config).CheckLimit(user, now)
	if err != nil {
		// The append itself succeeded; the caller can re-query the limit.
		log.Printf("TeaController: Limit check after append failed for %s: %s", email, err.Error())
	} else {
		resp.Limit = status
	}
	utils.JSONResponse(w, resp, http.StatusCreated)
}

// ListDay returns the events of a single calendar day (default today),
// ordered by consumption timestamp.
func (t *TeaController) ListDay(w http.ResponseWriter, r *http.Request) {
	var email = r.Context().Value("identity").(string)

	day, ok := t.parseDayParam(w, r, "date")
	if !ok {
		return
	}

	teas, ok := t.listRange(w, email, func(m *services.TeaManager, userID uuid.UUID) ([]models.Tea, error) {
		return m.ListForDay(userID, day)
	})
	if !ok {
		return
	}
	utils.JSONResponse(w, teas, http.StatusOK)
}

// ListWeek returns the events over the 7 calendar days starting at ?start=
// (default today).
func (t *TeaController) ListWeek(w http.ResponseWriter, r *http.Request) {
	var email = r.Context().Value("identity").(string)

	start, ok := t.parseDayParam(w, r, "start")
	if !ok {
		return
	}

	teas, ok := t.listRange(w, email, func(m *services.TeaManager, userID uuid.UUID) ([]models.Tea, error) {
		return m.ListForWeek(userID, start)
	})
	if !ok {
		return
	}
	utils.JSONResponse(w, teas, http.StatusOK)
}

// Delete removes one of the user's events. Removal is best-effort: deleting
// an id that is already gone still returns 204.
func (t *TeaController) Delete(w http.ResponseWriter, r *http.Request) {
	var email = r.Context().Value("identity").(string)

	id, err := uuid.FromString(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	userManager := services.NewUserManager(t.db, t.config)
	user, err := userManager.Get(email)
	if err != nil {
		log.Printf("TeaController: Error fetching user %s: %s", email, err.Error())
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if err := services.NewTeaManager(t.db, t.config).Remove(user.ID, id); err != nil {
		log.Printf("TeaController: Error deleting event %s for %s: %s", id, email, err.Error())
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CheckLimit is the advisory pre-check the UI runs before allowing a new
// append. It uses the same formula as the post-append evaluation; the
// authoritative check still happens server-side after every write.
func (t *TeaController) CheckLimit(w http.ResponseWriter, r *http.Request) {
	var email = r.Context().Value("identity").(string)

	userManager := services.NewUserManager(t.db, t.config)
	user, err := userManager.Get(email)
	if err != nil {
		log.Printf("TeaController: Error fetching user %s: %s", email, err.Error())
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	status, err := services.NewLimitMonitor(t.db, t.config).CheckLimit(user, time.Now())
	if err != nil {
		log.Printf("TeaController: Limit check failed for %s: %s", email, err.Error())
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	utils.JSONResponse(w, status, http.StatusOK)
}

func (t *TeaController) parseDayParam(w http.ResponseWriter, r *http.Request, name string) (time.Time, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Now(), true
	}
	day, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		http.Error(w, name+" must be a YYYY-MM-DD date", http.StatusBadRequest)
		return time.Time{}, false
	}
	return day, true
}

func (t *TeaController) listRange(w http.ResponseWriter, email string, list func(*services.TeaManager, uuid.UUID) ([]models.Tea, error)) ([]models.Tea, bool) {
	userManager := services.NewUserManager(t.db, t.config)
	user, err := userManager.Get(email)
	if err != nil {
		log.Printf("TeaController: Error fetching user %s: %s", email, err.Error())
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return nil, false
	}

	teas, err := list(services.NewTeaManager(t.db, t.config), user.ID)
	if err != nil {
		log.Printf("TeaController: Error listing events for %s: %s", email, err.Error())
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return nil, false
	}
	if teas == nil {
		teas = []models.Tea{}
	}
	return teas, true
}
