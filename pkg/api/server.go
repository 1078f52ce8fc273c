package api

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/convexfx/engine/pkg/clearing"
	"github.com/convexfx/engine/pkg/orderbook"
	"github.com/convexfx/engine/pkg/risk"
	"github.com/convexfx/engine/pkg/storage"
	"github.com/convexfx/engine/pkg/types"
)

// Server exposes the commit-reveal order book and published solutions over
// REST and WebSocket. It holds the live book for the current epoch plus a
// durable store for past epochs' reveals and solutions.
type Server struct {
	router *mux.Router
	hub    *Hub
	log    *zap.SugaredLogger

	book   *orderbook.OrderBook
	store  *storage.EpochStore
	risk   risk.RiskParams
}

func NewServer(book *orderbook.OrderBook, store *storage.EpochStore, riskParams risk.RiskParams, log *zap.SugaredLogger) *Server {
	s := &Server{
		router: mux.NewRouter(),
		hub:    NewHub(),
		log:    log,
		book:   book,
		store:  store,
		risk:   riskParams,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/epochs/{epoch}", s.handleGetEpochStatus).Methods("GET")
	api.HandleFunc("/epochs/{epoch}/solution", s.handleGetSolution).Methods("GET")
	api.HandleFunc("/epochs/{epoch}/commit", s.handleCommit).Methods("POST")
	api.HandleFunc("/epochs/{epoch}/reveal", s.handleReveal).Methods("POST")
	api.HandleFunc("/risk", s.handleGetRisk).Methods("GET")

	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Start runs the HTTP server, blocking until it returns an error.
func (s *Server) Start(addr string) error {
	go s.hub.Run()

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:3001"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})
	handler := c.Handler(s.router)

	if s.log != nil {
		s.log.Infow("api_listening", "addr", addr)
	}
	return http.ListenAndServe(addr, handler)
}

// ==============================
// REST Handlers
// ==============================

func (s *Server) handleGetEpochStatus(w http.ResponseWriter, r *http.Request) {
	epoch, err := parseEpochVar(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid epoch", err.Error())
		return
	}

	status := EpochStatus{Epoch: uint64(epoch)}
	if s.book != nil && s.book.Epoch() == epoch {
		status.Phase = s.book.Phase().String()
	}
	if s.store != nil {
		n, err := s.store.CountCommitments(epoch)
		if err == nil {
			status.CommitCount = n
		}
		reveals, err := s.store.LoadReveals(epoch)
		if err == nil {
			status.RevealCount = len(reveals)
		}
	}

	respondJSON(w, status)
}

func (s *Server) handleGetSolution(w http.ResponseWriter, r *http.Request) {
	epoch, err := parseEpochVar(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid epoch", err.Error())
		return
	}
	if s.store == nil {
		respondError(w, http.StatusServiceUnavailable, "no solution store configured", "")
		return
	}
	sol, ok, err := s.store.LoadSolution(epoch)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load solution", err.Error())
		return
	}
	if !ok {
		respondError(w, http.StatusNotFound, "solution not found", "")
		return
	}
	respondJSON(w, toSolutionInfo(sol))
}

func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	epoch, err := parseEpochVar(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid epoch", err.Error())
		return
	}

	var req CommitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	commitment, err := orderbook.CommitmentHashFromHex(req.Commitment)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid commitment", err.Error())
		return
	}

	if err := s.book.Commit(epoch, commitment); err != nil {
		respondError(w, http.StatusBadRequest, "commit rejected", err.Error())
		return
	}
	if s.store != nil {
		if err := s.store.SaveCommitment(epoch, commitment); err != nil {
			respondError(w, http.StatusInternalServerError, "failed to persist commitment", err.Error())
			return
		}
	}

	s.hub.BroadcastToChannel(fmt.Sprintf("epoch:%d", epoch), WSMessage{
		Type: "commit",
		Data: req,
	})
	respondJSON(w, SubmitResponse{Status: "accepted"})
}

func (s *Server) handleReveal(w http.ResponseWriter, r *http.Request) {
	epoch, err := parseEpochVar(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid epoch", err.Error())
		return
	}

	var req RevealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	var order types.PairOrder
	if err := json.Unmarshal([]byte(req.Order), &order); err != nil {
		respondError(w, http.StatusBadRequest, "invalid order payload", err.Error())
		return
	}
	salt, err := hex.DecodeString(req.Salt)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid salt hex", err.Error())
		return
	}

	if err := s.book.Reveal(order, salt); err != nil {
		respondError(w, http.StatusBadRequest, "reveal rejected", err.Error())
		return
	}
	if s.store != nil {
		if err := s.store.SaveReveal(epoch, order); err != nil {
			respondError(w, http.StatusInternalServerError, "failed to persist reveal", err.Error())
			return
		}
	}

	s.hub.BroadcastToChannel(fmt.Sprintf("epoch:%d", epoch), WSMessage{
		Type: "reveal",
		Data: order,
	})
	respondJSON(w, SubmitResponse{Status: "accepted"})
}

func (s *Server) handleGetRisk(w http.ResponseWriter, r *http.Request) {
	info := RiskInfo{
		Eta:     s.risk.Eta,
		BandBps: s.risk.PriceBandBps,
		QTarget: assetFloatMap(s.risk.QTarget),
		QMin:    assetFloatMap(s.risk.QMin),
		QMax:    assetFloatMap(s.risk.QMax),
	}
	respondJSON(w, info)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

// SetBook swaps in the live order book for the epoch currently being
// collected/revealed. Called once per epoch rollover.
func (s *Server) SetBook(book *orderbook.OrderBook) { s.book = book }

// BroadcastSolution publishes a newly-cleared epoch's solution to every
// WebSocket client subscribed to that epoch's channel.
func (s *Server) BroadcastSolution(sol clearing.EpochSolution) {
	s.hub.BroadcastToChannel(fmt.Sprintf("epoch:%d", sol.EpochID), SolutionUpdate{
		Type:     "solution",
		Epoch:    uint64(sol.EpochID),
		Solution: toSolutionInfo(sol),
	})
}

// ==============================
// Helpers
// ==============================

func parseEpochVar(r *http.Request) (types.EpochId, error) {
	vars := mux.Vars(r)
	var epoch uint64
	if _, err := fmt.Sscanf(vars["epoch"], "%d", &epoch); err != nil {
		return 0, fmt.Errorf("malformed epoch: %w", err)
	}
	return types.EpochId(epoch), nil
}

func toSolutionInfo(sol clearing.EpochSolution) SolutionInfo {
	prices := make(map[string]float64, types.NumAssets())
	for _, a := range types.AllAssets() {
		prices[a.String()] = sol.Prices.Get(a)
	}
	fills := make([]FillInfo, len(sol.Fills))
	for i, f := range sol.Fills {
		fills[i] = FillInfo{
			OrderID:   string(f.OrderID),
			FillFrac:  f.FillFrac,
			PayAsset:  f.PayAsset.String(),
			RecvAsset: f.RecvAsset.String(),
			PayUnits:  f.PayUnits.String(),
			RecvUnits: f.RecvUnits.String(),
		}
	}
	return SolutionInfo{
		Epoch:      uint64(sol.EpochID),
		Prices:     prices,
		Fills:      fills,
		Converged:  sol.Diagnostics.ConvergenceAchieved,
		Iterations: sol.Diagnostics.Iterations,
	}
}

func assetFloatMap(m map[types.AssetId]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for a, v := range m {
		out[a.String()] = v
	}
	return out
}

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, errMsg string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: errMsg, Message: message})
}
