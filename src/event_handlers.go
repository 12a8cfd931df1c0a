package main

import (
	"errors"
	"etix/src/common"
	"etix/src/config"
	"etix/src/db"
	"etix/src/models"
	"etix/src/types"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

func eventBrowseHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/events", func(ctx *gin.Context) {
			db := db.GetDb()
			var events []models.Event
			if err := db.
				Model(&models.Event{}).
				Where(&models.Event{Status: types.EVENT_OPEN}).
				Order("date_time asc").
				Limit(100).
				Find(&events).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": events, "count": len(events)})
		}).
		GET("/events/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			db := db.GetDb()
			var event models.Event
			if err := db.
				Model(&models.Event{}).
				Where(&models.Event{ID: params.ID}).
				Preload("Venue").
				First(&event).
				Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
					return
				}
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": event})
		}).
		GET("/events/:id/ticket-types", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			db := db.GetDb()
			var ticketTypes []models.TicketType
			if err := db.
				Model(&models.TicketType{}).
				Where(&models.TicketType{EventID: params.ID, Status: types.TICKET_TYPE_OPEN}).
				Find(&ticketTypes).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ledger := common.GetLedger()
			data := make([]types.APIResponseTicketType, 0, len(ticketTypes))
			for _, tt := range ticketTypes {
				held, err := ledger.GetHeld(ctx, tt.ID)
				if err != nil {
					log.Printf("Error reading held counter for ticket type %d: %s\n", tt.ID, err.Error())
					held = 0
				}
				available := int64(tt.Available) - held
				if available < 0 {
					available = 0
				}
				data = append(data, types.APIResponseTicketType{
					ID:        tt.ID,
					Tier:      tt.Tier,
					Currency:  tt.Currency,
					Price:     tt.Price,
					Total:     tt.Total,
					Available: available,
				})
			}
			ctx.JSON(http.StatusOK, gin.H{"data": data, "count": len(data)})
		}).
		GET("/events/:id/seatmap", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			db := db.GetDb()
			var seats []models.SeatStatus
			if err := db.
				Model(&models.SeatStatus{}).
				Where(&models.SeatStatus{EventID: params.ID}).
				Order("seat_id asc").
				Find(&seats).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			data := make([]types.APIResponseSeatStatus, 0, len(seats))
			for _, seat := range seats {
				data = append(data, types.APIResponseSeatStatus{
					SeatID:    seat.SeatID,
					SectionID: seat.SectionID,
					State:     seat.State,
					HeldUntil: seat.HeldUntil,
				})
			}
			ctx.JSON(http.StatusOK, gin.H{"data": data, "count": len(data)})
		})
	return g
}

func eventManageHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/events", func(ctx *gin.Context) {
			var body types.CreateEventRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				log.Printf("Error in validating request: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			dateTime, err := time.Parse(config.TIME_PARSE_FORMAT, body.DateTime)
			if err != nil {
				log.Printf("Error parsing date_time: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			deadline, err := time.Parse(config.TIME_PARSE_FORMAT, body.Deadline)
			if err != nil {
				log.Printf("Error parsing deadline: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			event := models.Event{
				Title:         body.Title,
				Name:          body.Name,
				About:         &body.Description,
				Location:      body.Location,
				VenueID:       body.VenueID,
				DateTime:      dateTime,
				Deadline:      deadline,
				Status:        types.EVENT_DRAFT,
				SelectionMode: types.SelectionMode(body.SelectionMode),
				CreatedBy:     userId,
				OrganizerID:   userId,
			}
			db := db.GetDb()
			if err := db.Transaction(func(tx *gorm.DB) error {
				if err := tx.Create(&event).Error; err != nil {
					return err
				}
				newSlug := fmt.Sprintf("%s-%d", slug.Make(event.Name), event.ID)
				return tx.
					Model(&models.Event{}).
					Where("id = ?", event.ID).
					Update("slug", newSlug).
					Error
			}); err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": gin.H{"id": event.ID}})
		}).
		POST("/events/:id/publish", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			db := db.GetDb()
			res := db.
				Model(&models.Event{}).
				Where("id = ? AND status = ?", params.ID, types.EVENT_DRAFT).
				Update("status", types.EVENT_OPEN)
			if res.Error != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": res.Error.Error()})
				return
			}
			if res.RowsAffected != 1 {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "event not found or not in draft"})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"status": string(types.EVENT_OPEN)})
		}).
		POST("/ticket-types", func(ctx *gin.Context) {
			var body types.CreateTicketTypeRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				log.Printf("Error in validating request: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			tt := models.TicketType{
				EventID:      body.EventID,
				Tier:         body.Tier,
				Currency:     body.Currency,
				Price:        body.Price,
				Total:        body.Total,
				Available:    body.Total,
				PerUserLimit: body.PerUserLimit,
				Status:       types.TICKET_TYPE_OPEN,
			}
			if body.SalesStart != nil {
				salesStart, err := time.Parse(config.TIME_PARSE_FORMAT, *body.SalesStart)
				if err != nil {
					ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					return
				}
				tt.SalesStart = &salesStart
			}
			if body.SalesEnd != nil {
				salesEnd, err := time.Parse(config.TIME_PARSE_FORMAT, *body.SalesEnd)
				if err != nil {
					ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					return
				}
				tt.SalesEnd = &salesEnd
			}
			db := db.GetDb()
			if err := db.Transaction(func(tx *gorm.DB) error {
				var event models.Event
				if err := tx.
					Where(&models.Event{ID: body.EventID}).
					First(&event).
					Error; err != nil {
					return err
				}
				return tx.Create(&tt).Error
			}); err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": gin.H{"id": tt.ID}})
		}).
		POST("/events/:id/seats", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var body types.CreateSeatStatusRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				log.Printf("Error in validating request: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			db := db.GetDb()
			created := 0
			if err := db.Transaction(func(tx *gorm.DB) error {
				for _, assignment := range body.Seats {
					ticketTypeID := assignment.TicketTypeID
					seat := models.SeatStatus{
						EventID:      params.ID,
						SeatID:       assignment.SeatID,
						SectionID:    assignment.SectionID,
						TicketTypeID: &ticketTypeID,
						State:        types.SEAT_AVAILABLE,
					}
					if err := tx.Create(&seat).Error; err != nil {
						return err
					}
					created++
				}
				return nil
			}); err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"count": created})
		})
	return g
}
