package jobs

import (
	"context"
	"log"
	"time"

	"bicho-platform/internal/services"
)

// PaymentPoller reconciles in-flight payment transactions against the
// gateway, re-settles draws with stray pending wagers and expires
// overdue bonus grants. It backstops webhooks and settlement runs: a
// missed notification or an interrupted settlement is picked up on the
// next tick.
type PaymentPoller struct {
	paymentService    *services.PaymentService
	settlementService *services.SettlementService
	bonusService      *services.BonusService
	interval          time.Duration
	staleAfter        time.Duration
	stopChan          chan struct{}
}

// NewPaymentPoller creates a new payment poller job
func NewPaymentPoller(paymentService *services.PaymentService, settlementService *services.SettlementService, bonusService *services.BonusService, interval, staleAfter time.Duration) *PaymentPoller {
	return &PaymentPoller{
		paymentService:    paymentService,
		settlementService: settlementService,
		bonusService:      bonusService,
		interval:          interval,
		staleAfter:        staleAfter,
		stopChan:          make(chan struct{}),
	}
}

// Start begins the reconciliation loop
func (pp *PaymentPoller) Start() {
	log.Printf("[PaymentPoller] Starting payment reconciliation job (interval: %v, stale after: %v)",
		pp.interval, pp.staleAfter)

	ticker := time.NewTicker(pp.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pp.tick()
		case <-pp.stopChan:
			log.Println("[PaymentPoller] Stopping payment reconciliation job")
			return
		}
	}
}

// Stop stops the reconciliation loop
func (pp *PaymentPoller) Stop() {
	close(pp.stopChan)
}

func (pp *PaymentPoller) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), pp.interval)
	defer cancel()

	if err := pp.paymentService.PollStale(ctx, pp.staleAfter); err != nil {
		log.Printf("[PaymentPoller] Error polling stale transactions: %v", err)
	}

	if err := pp.settlementService.SweepUnsettled(ctx); err != nil {
		log.Printf("[PaymentPoller] Error sweeping unsettled wagers: %v", err)
	}

	expired, err := pp.bonusService.ExpireOverdue()
	if err != nil {
		log.Printf("[PaymentPoller] Error expiring bonus grants: %v", err)
		return
	}
	if expired > 0 {
		log.Printf("[PaymentPoller] Expired %d overdue bonus grant(s)", expired)
	}
}
