package models

import "time"

// DealCounts aggregates recorded deals by status
type DealCounts struct {
	Total       int     `json:"total"`
	Open        int     `json:"open"`
	Closed      int     `json:"closed"`
	Pending     int     `json:"pending"`
	TotalAmount float64 `json:"totalAmount"`
	AvgDealSize float64 `json:"avgDealSize"`
}

// DealActivity is one recorded sync of a deal
type DealActivity struct {
	ID           string     `json:"id"`
	DealID       string     `json:"dealId"`
	Customer     string     `json:"customer"`
	Amount       float64    `json:"amount"`
	Status       DealStatus `json:"status"`
	Source       SyncSource `json:"source"`
	Synced       []string   `json:"synced"`
	TimeSavedSec int        `json:"timeSavedSec"`
	Timestamp    time.Time  `json:"timestamp"`
}

// DealSummary is the dashboard view over recorded syncs
type DealSummary struct {
	Deals          DealCounts     `json:"deals"`
	SuccessRate    int            `json:"successRate"`
	TimeSavedSec   int            `json:"timeSavedSec"`
	LastDeal       *DealActivity  `json:"lastDeal"`
	RecentActivity []DealActivity `json:"recentActivity"`
}
