package main

import (
	"errors"
	"etix/src/db"
	"etix/src/models"
	"etix/src/types"
	"etix/src/utils"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func admissionHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/admissions", func(ctx *gin.Context) {
			var body types.CreateAdmissionRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				log.Printf("Error in validating request: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			purchaseId, referenceId, err := utils.ParseAdmissionCode(body.Code)
			if err != nil {
				log.Printf("Error parsing admission code: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid admission code"})
				return
			}
			db := db.GetDb()
			var purchase models.Purchase
			if err := db.Transaction(func(tx *gorm.DB) error {
				if err := tx.
					Where(&models.Purchase{ID: purchaseId, ReferenceID: referenceId}).
					First(&purchase).
					Error; err != nil {
					return err
				}
				res := tx.
					Model(&models.Purchase{}).
					Where("id = ? AND status = ?", purchaseId, types.PURCHASE_PAID).
					Update("status", types.PURCHASE_CHECKED_IN)
				if res.Error != nil {
					return res.Error
				}
				if res.RowsAffected != 1 {
					return errors.New("ticket already used or not admissible")
				}
				return nil
			}); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
					return
				}
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": gin.H{
				"purchase": purchase.ID,
				"status":   string(types.PURCHASE_CHECKED_IN),
			}})
		})
	return g
}
