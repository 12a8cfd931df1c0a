package main

import (
	"errors"
	"etix/src/db"
	"etix/src/models"
	"etix/src/types"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func purchaseHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/purchases", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			db := db.GetDb()
			var purchases []models.Purchase
			if err := db.
				Model(&models.Purchase{}).
				Where(&models.Purchase{UserID: userId}).
				Preload("Items").
				Order("created_at desc").
				Limit(100).
				Find(&purchases).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": purchases, "count": len(purchases)})
		}).
		GET("/purchases/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			userId := ctx.GetUint("id")
			db := db.GetDb()
			var purchase models.Purchase
			if err := db.
				Model(&models.Purchase{}).
				Where(&models.Purchase{ID: params.ID, UserID: userId}).
				Preload("Items").
				Preload("Event").
				First(&purchase).
				Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
					return
				}
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": purchase})
		})
	return g
}
