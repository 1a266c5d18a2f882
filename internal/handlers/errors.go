package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
)

// Stable error kinds carried in every error response body; clients branch on
// the kind, the message is for humans.
const (
	errKindValidation = "validation"
	errKindNotFound   = "not_found"
	errKindConflict   = "conflict"
	errKindUpstream   = "upstream"
)

func respondError(c *gin.Context, status int, kind, message string) {
	log.Printf("[%s %s] returning error %d (%s): %s", c.Request.Method, c.FullPath(), status, kind, message)
	c.AbortWithStatusJSON(status, gin.H{"error": message, "kind": kind})
}

func respondValidation(c *gin.Context, message string) {
	respondError(c, http.StatusBadRequest, errKindValidation, message)
}

func respondNotFound(c *gin.Context, message string) {
	respondError(c, http.StatusNotFound, errKindNotFound, message)
}

func respondConflict(c *gin.Context, message string) {
	respondError(c, http.StatusConflict, errKindConflict, message)
}

func respondUpstream(c *gin.Context, message string) {
	respondError(c, http.StatusInternalServerError, errKindUpstream, message)
}

// isTransientTxnError reports whether a transaction failed to a write conflict
// with a concurrent writer, which surfaces to the caller as a conflict rather
// than an upstream failure.
func isTransientTxnError(err error) bool {
	if cmdErr, ok := err.(mongo.CommandError); ok {
		return cmdErr.HasErrorLabel("TransientTransactionError")
	}
	return false
}
