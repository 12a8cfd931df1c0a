package boot

import (
	"etix/src/common"
	"etix/src/db"
	"etix/src/lib"
	"etix/src/models"
	"log"

	"gorm.io/gorm"
)

func InitDb() *gorm.DB {
	db := db.GetDb()

	err := db.AutoMigrate(
		&models.User{},
		&models.Venue{},
		&models.Section{},
		&models.Seat{},
		&models.Event{},
		&models.TicketType{},
		&models.SeatStatus{},
		&models.Purchase{},
		&models.PurchaseItem{},
		&models.OrphanedCharge{},
	)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	return db
}

func InitScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return
	}
	sweeper := common.NewSweeper(common.NewHoldService(common.GetLedger()))
	if err := sweeper.Start(); err != nil {
		log.Printf("Error starting sweeper: %s\n", err.Error())
	}
	jobsWaitingInQueue := len(sched.Jobs())
	log.Println("Jobs in queue:", jobsWaitingInQueue)
	sched.Start()
}

func StopScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("Error retrieving Scheduler. Check logs for info")
		return
	}
	err = sched.Shutdown()
	if err != nil {
		log.Println("An error has occurred while shutting stopping Scheduler. Check logs for info")
		return
	}
}
