package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/DVSJagadeesh/Cryptographic-Solutions-for-Supply-Chain-Security/pkg/account"
	"github.com/DVSJagadeesh/Cryptographic-Solutions-for-Supply-Chain-Security/pkg/core"
)

// Server exposes a ledger node over HTTP. All chain access goes through
// the node's own locking, so handlers never need extra synchronization.
type Server struct {
	listenAddr string
	node       *core.Node
	hub        *EventHub
	router     *mux.Router
	httpServer *http.Server
	log        *slog.Logger
}

// NewServer wires the route table for the given node. A nil logger falls
// back to slog.Default().
func NewServer(listenAddr string, node *core.Node, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		listenAddr: listenAddr,
		node:       node,
		hub:        NewEventHub(logger),
		router:     mux.NewRouter(),
		log:        logger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	s.router.HandleFunc("/chain", s.handleGetChain).Methods("GET")
	s.router.HandleFunc("/chain/validate", s.handleValidateChain).Methods("GET")

	s.router.HandleFunc("/blocks/latest", s.handleGetLatestBlock).Methods("GET")
	s.router.HandleFunc("/blocks/{index}", s.handleGetBlockByIndex).Methods("GET")

	s.router.HandleFunc("/pool", s.handleGetPool).Methods("GET")
	s.router.HandleFunc("/accounts/{address}/balance", s.handleGetBalance).Methods("GET")

	s.router.HandleFunc("/transactions", s.handleSubmitTransaction).Methods("POST")
	s.router.HandleFunc("/mine", s.handleMine).Methods("POST")

	s.router.HandleFunc("/ws", s.hub.HandleWebSocket)
}

// Handler returns the configured route table, mainly for tests that mount
// the server inside httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks serving HTTP until Shutdown is called or the listener
// fails. Mining responses can outlive any fixed write window, so only the
// header read carries a timeout.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.listenAddr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info("rpc server listening", "addr", s.listenAddr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("rpc server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and closes websocket subscribers.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, map[string]any{
		"status": "ok",
		"height": s.node.Height(),
		"time":   time.Now().Unix(),
	})
}

func (s *Server) handleGetChain(w http.ResponseWriter, r *http.Request) {
	chain := s.node.Chain()
	s.jsonResponse(w, map[string]any{
		"height": len(chain),
		"blocks": chain,
	})
}

func (s *Server) handleValidateChain(w http.ResponseWriter, r *http.Request) {
	if ok, fault := s.node.ValidateChain(); !ok {
		s.jsonResponse(w, map[string]any{
			"valid":  false,
			"index":  fault.Index,
			"reason": fault.Reason,
		})
		return
	}
	s.jsonResponse(w, map[string]any{"valid": true})
}

func (s *Server) handleGetLatestBlock(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, s.node.LatestBlock())
}

func (s *Server) handleGetBlockByIndex(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	index, err := strconv.ParseUint(vars["index"], 10, 64)
	if err != nil {
		s.errorResponse(w, "invalid block index", http.StatusBadRequest)
		return
	}
	block, ok := s.node.BlockByIndex(index)
	if !ok {
		s.errorResponse(w, "block not found", http.StatusNotFound)
		return
	}
	s.jsonResponse(w, block)
}

func (s *Server) handleGetPool(w http.ResponseWriter, r *http.Request) {
	pending := s.node.Pending()
	s.jsonResponse(w, map[string]any{
		"count":   len(pending),
		"pending": pending,
	})
}

func (s *Server) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var addr account.Address
	if err := addr.UnmarshalText([]byte(vars["address"])); err != nil {
		s.errorResponse(w, "invalid address", http.StatusBadRequest)
		return
	}
	s.jsonResponse(w, map[string]any{
		"address": addr,
		"display": addr.Display(),
		"balance": s.node.Balance(addr),
	})
}

func (s *Server) handleSubmitTransaction(w http.ResponseWriter, r *http.Request) {
	var tx core.Transaction
	if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
		s.errorResponse(w, "invalid transaction payload", http.StatusBadRequest)
		return
	}
	if err := s.node.SubmitTransaction(tx); err != nil {
		var txErr *core.TxError
		if errors.As(err, &txErr) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnprocessableEntity)
			if encodeErr := json.NewEncoder(w).Encode(map[string]any{
				"accepted":    false,
				"reason":      txErr.Reason,
				"detail":      txErr.Error(),
				"transaction": txErr.Tx,
			}); encodeErr != nil {
				s.log.Error("failed to encode rejection response", "error", encodeErr)
			}
			return
		}
		s.errorResponse(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.jsonResponse(w, map[string]any{
		"accepted":  true,
		"pool_size": len(s.node.Pending()),
	})
}

func (s *Server) handleMine(w http.ResponseWriter, r *http.Request) {
	block, err := s.node.MineBlock(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, core.ErrMineCancelled):
			s.errorResponse(w, "mining cancelled", http.StatusServiceUnavailable)
		case errors.Is(err, core.ErrNonceExhausted):
			s.errorResponse(w, "nonce space exhausted", http.StatusServiceUnavailable)
		default:
			s.errorResponse(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	s.hub.BroadcastBlock(*block)
	s.jsonResponse(w, block)
}

func (s *Server) jsonResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error("failed to encode response", "error", err)
	}
}

func (s *Server) errorResponse(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(map[string]any{"error": message}); err != nil {
		s.log.Error("failed to encode error response", "error", err)
	}
}
