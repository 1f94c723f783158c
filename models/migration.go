package models

import (
	"log"

	"bitbucket.org/mmdatafocus/repricer_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&ProductSnapshot{}, &SalesVelocity{},
		&PricingRule{},
		&Proposal{},
		&RepricerSettings{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
