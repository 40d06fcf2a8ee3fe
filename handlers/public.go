package handlers

import (
	"context"
	"net/http"
	"time"

	"restaurant-api/models"
	"restaurant-api/statemachine"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type transitionView struct {
	From models.OrderStatus `json:"from"`
	To   models.OrderStatus `json:"to"`
}

type stateMachineView struct {
	Strict         bool                 `json:"strict"`
	Statuses       []models.OrderStatus `json:"statuses"`
	Transitions    []transitionView     `json:"transitions"`
	TerminalStates []models.OrderStatus `json:"terminalStates"`
}

// Welcome answers GET /
func Welcome(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Restaurant Ordering Platform API"})
}

// Health pings the store with a short deadline.
func Health(store Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": "unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "reachable"})
	}
}

// StateMachine lists the order lifecycle. strict reports whether the server
// enforces it on status updates.
func StateMachine(strict bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		all := statemachine.GetAllTransitions()
		transitions := make([]transitionView, len(all))
		for i, t := range all {
			transitions[i] = transitionView{From: t.From, To: t.To}
		}
		respond(c, http.StatusOK, "", stateMachineView{
			Strict:         strict,
			Statuses:       models.Statuses,
			Transitions:    transitions,
			TerminalStates: statemachine.TerminalStates(),
		})
	}
}
