package main

import (
	"etix/src/common"
	"etix/src/types"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

func checkoutHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	checkout := common.NewCheckoutService(common.NewHoldService(common.GetLedger()))
	g.
		POST("/checkout", func(ctx *gin.Context) {
			var body types.CheckoutRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				log.Printf("Error in validating request: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			purchase, err := checkout.Checkout(ctx, userId, &body)
			if err != nil {
				log.Printf("Error on checkout for hold %s: %s\n", body.HoldID, err.Error())
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": purchase})
		})
	return g
}
