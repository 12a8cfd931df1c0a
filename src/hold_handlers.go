package main

import (
	"errors"
	"etix/src/common"
	"etix/src/types"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// respondError maps the reservation error taxonomy onto HTTP statuses.
func respondError(ctx *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, common.ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.Is(err, common.ErrResourcesUnavailable):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, common.ErrHoldNotFound):
		status = http.StatusNotFound
	case errors.Is(err, common.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, common.ErrPaymentFailed):
		status = http.StatusPaymentRequired
	case errors.Is(err, common.ErrPersistenceInconsistency):
		status = http.StatusInternalServerError
	}
	ctx.JSON(status, gin.H{"error": err.Error()})
}

func holdHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	holds := common.NewHoldService(common.GetLedger())
	g.
		POST("/holds", func(ctx *gin.Context) {
			var body types.CreateHoldRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				log.Printf("Error in validating request: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			hold, err := holds.CreateHold(ctx, userId, &body)
			if err != nil {
				log.Printf("Error creating hold: %s\n", err.Error())
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": gin.H{
				"id":         hold.ID,
				"event":      hold.EventID,
				"mode":       hold.Mode,
				"expires_at": hold.ExpiresAt,
			}})
		}).
		GET("/holds/:id", func(ctx *gin.Context) {
			var params types.HoldURIParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			hold, err := holds.GetHold(ctx, params.ID, userId)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": hold})
		}).
		DELETE("/holds/:id", func(ctx *gin.Context) {
			var params types.HoldURIParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			if err := holds.ReleaseHold(ctx, params.ID, userId); err != nil {
				log.Printf("Error releasing hold %s: %s\n", params.ID, err.Error())
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"status": "released"})
		})
	return g
}
