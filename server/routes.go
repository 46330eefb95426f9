package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/SvenDH/go-life-engine/engine"
	"github.com/SvenDH/go-life-engine/render"
	"github.com/SvenDH/go-life-engine/store"
)

type LoginUser struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func respondWithError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	})
	if err != nil {
		log.Printf("Error encoding error response: %v", err)
	}
}

func respondWithJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(data)
	if err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// respondWithErr maps domain errors onto status codes.
func respondWithErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, engine.ErrInvalidBoard), errors.Is(err, engine.ErrInvalidParameter):
		respondWithError(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("internal error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "")
	}
}

type Cors struct {
	handler http.Handler
}

func (c *Cors) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	c.handler.ServeHTTP(w, r)
}

type Logger struct {
	handler http.Handler
	logger  *log.Logger
}

func (l *Logger) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	l.handler.ServeHTTP(w, r)
	l.logger.Printf("%s %s %v", r.Method, r.URL.Path, time.Since(start))
}

type Router struct {
	addr     string
	repo     *store.Repository
	auth     *Auth
	wsServer *Server
	mux      http.Handler
}

// NewRouter creates the HTTP routes of the run service.
func NewRouter(addr string, repo *store.Repository, auth *Auth, wsServer *Server) *Router {
	router := &Router{
		addr:     addr,
		repo:     repo,
		auth:     auth,
		wsServer: wsServer,
	}

	mux := http.NewServeMux()
	// Live runs over websocket
	mux.HandleFunc("GET /ws", auth.Middleware(func(w http.ResponseWriter, r *http.Request) {
		ServeWs(wsServer, w, r)
	}))
	mux.HandleFunc("POST /register", router.register)
	mux.HandleFunc("POST /login", router.login)
	mux.HandleFunc("GET /runs", router.listRuns)
	mux.HandleFunc("POST /runs", auth.Middleware(router.createRun))
	mux.HandleFunc("GET /runs/{id}", router.getRun)
	mux.HandleFunc("GET /runs/{id}/population", router.getPopulation)

	logger := log.New(os.Stderr, "[http]: ", log.LstdFlags)
	router.mux = &Logger{&Cors{mux}, logger}
	return router
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *Router) Run() error {
	log.Printf("http server started on %s", r.addr)
	return http.ListenAndServe(r.addr, r.mux)
}

func decodeLogin(w http.ResponseWriter, req *http.Request) (*LoginUser, bool) {
	var user LoginUser
	if err := json.NewDecoder(req.Body).Decode(&user); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return nil, false
	}
	if user.Username == "" || user.Password == "" {
		respondWithError(w, http.StatusBadRequest, "Username and password are required")
		return nil, false
	}
	return &user, true
}

func (r *Router) register(w http.ResponseWriter, req *http.Request) {
	login, ok := decodeLogin(w, req)
	if !ok {
		return
	}
	if _, err := r.repo.FindUserByName(login.Username); err == nil {
		respondWithError(w, http.StatusConflict, "Username is taken")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		respondWithErr(w, err)
		return
	}

	hash, err := GeneratePassword(login.Password)
	if err != nil {
		respondWithErr(w, err)
		return
	}
	user, err := r.repo.AddUser(login.Username)
	if err != nil {
		respondWithErr(w, err)
		return
	}
	if err := r.repo.SetPassword(user, hash); err != nil {
		respondWithErr(w, err)
		return
	}
	token, err := r.auth.CreateJWTToken(user)
	if err != nil {
		respondWithErr(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, token)
}

func (r *Router) login(w http.ResponseWriter, req *http.Request) {
	login, ok := decodeLogin(w, req)
	if !ok {
		return
	}
	user, err := r.repo.FindUserByName(login.Username)
	if errors.Is(err, store.ErrNotFound) {
		respondWithError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	} else if err != nil {
		respondWithErr(w, err)
		return
	}
	if !user.Password.Valid {
		respondWithError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	valid, err := ValidatePassword(login.Password, user.Password.String)
	if err != nil || !valid {
		respondWithError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	token, err := r.auth.CreateJWTToken(user)
	if err != nil {
		respondWithErr(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, token)
}

func (r *Router) listRuns(w http.ResponseWriter, req *http.Request) {
	limit := 50
	if s := req.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}
	runs, err := r.repo.ListRuns(limit)
	if err != nil {
		respondWithErr(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, runs)
}

func (r *Router) getRun(w http.ResponseWriter, req *http.Request) {
	run, err := r.repo.FindRun(req.PathValue("id"))
	if err != nil {
		respondWithErr(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, run)
}

// getPopulation returns the trajectory as JSON, or as a PNG chart with
// ?format=png.
func (r *Router) getPopulation(w http.ResponseWriter, req *http.Request) {
	population, err := r.repo.Population(req.PathValue("id"))
	if err != nil {
		respondWithErr(w, err)
		return
	}
	if req.URL.Query().Get("format") != "png" {
		respondWithJSON(w, http.StatusOK, population)
		return
	}
	var buf bytes.Buffer
	if err := render.PopulationChart(&buf, population); err != nil {
		respondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// createRun simulates synchronously and stores the result.
func (r *Router) createRun(w http.ResponseWriter, req *http.Request) {
	user, _ := userFromContext(req.Context())
	body := newRunRequest()
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	sim, err := body.Simulation()
	if err != nil {
		respondWithErr(w, err)
		return
	}
	result, err := sim.Run(req.Context())
	if err != nil {
		respondWithErr(w, err)
		return
	}
	run, err := r.repo.SaveRun(user, sim.Params, result)
	if err != nil {
		respondWithErr(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, run)
}
