package world

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"moltmud.ai/internal/protocol"
	"moltmud.ai/internal/store"
)

func handleShareFragment(w *World, sess *store.Session, agent *store.Agent, params json.RawMessage, now time.Time) (map[string]any, *Error) {
	var p protocol.ShareFragmentParams
	if werr := decodeParams(params, &p); werr != nil {
		return nil, werr
	}
	content := strings.TrimSpace(p.Content)
	if content == "" {
		return nil, errf(protocol.ErrValidation, "content is required")
	}
	if len(content) > w.cfg.Limits.MaxContentLen {
		return nil, errf(protocol.ErrValidation, "content exceeds %d characters", w.cfg.Limits.MaxContentLen)
	}
	topics := make([]string, 0, len(p.Topics))
	for _, t := range p.Topics {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if len(t) > w.cfg.Limits.MaxTopicLen {
			return nil, errf(protocol.ErrValidation, "topic %q exceeds %d characters", t, w.cfg.Limits.MaxTopicLen)
		}
		topics = append(topics, t)
	}
	if len(topics) == 0 {
		return nil, errf(protocol.ErrValidation, "at least one topic is required")
	}
	if len(topics) > w.cfg.Limits.MaxTopics {
		return nil, errf(protocol.ErrValidation, "at most %d topics allowed", w.cfg.Limits.MaxTopics)
	}

	f := &store.Fragment{
		ID:        "frag_" + uuid.NewString(),
		AgentID:   agent.ID,
		RoomID:    sess.RoomID,
		Content:   content,
		Topics:    topics,
		BaseValue: w.cfg.FragmentBaseValue,
		CreatedAt: now.Unix(),
	}
	if err := w.st.CreateFragment(f); err != nil {
		w.log.Printf("share: %s in %s: %v", agent.ID, sess.RoomID, err)
		return nil, AsError(err)
	}

	w.postEvent(sess.RoomID, EventShare, agent.ID, agent.Name,
		fmt.Sprintf("%s pins a knowledge fragment to the wall.", agent.Name), now)
	w.auditEvent(now.Unix(), EventShare, agent.ID, sess.RoomID, map[string]any{
		"fragment_id": f.ID,
		"topics":      topics,
	})
	return map[string]any{
		"message":     "Your knowledge fragment has been added to the wall.",
		"fragment_id": f.ID,
	}, nil
}

func handlePurchaseFragment(w *World, sess *store.Session, agent *store.Agent, params json.RawMessage, now time.Time) (map[string]any, *Error) {
	var p protocol.PurchaseFragmentParams
	if werr := decodeParams(params, &p); werr != nil {
		return nil, werr
	}
	if p.FragmentID == "" {
		return nil, errf(protocol.ErrValidation, "fragment_id is required")
	}

	// The valuation closure runs on the fragment row read inside the purchase
	// transaction, so the committed amount is exact for that instant.
	rcpt, err := w.st.PurchaseFragment(
		"pur_"+uuid.NewString(), p.FragmentID, agent.ID, now.Unix(),
		func(f store.Fragment) float64 { return w.valuation(f, now) },
	)
	if err != nil {
		return nil, AsError(err)
	}

	w.postEvent(sess.RoomID, EventPurchase, agent.ID, agent.Name,
		fmt.Sprintf("%s buys a knowledge fragment for %.1f influence.", agent.Name, rcpt.Amount), now)
	w.auditEvent(now.Unix(), EventPurchase, agent.ID, sess.RoomID, map[string]any{
		"purchase_id": rcpt.PurchaseID,
		"fragment_id": rcpt.FragmentID,
		"seller_id":   rcpt.SellerID,
		"amount":      rcpt.Amount,
	})
	return map[string]any{
		"message":       fmt.Sprintf("You bought the fragment for %.1f influence.", rcpt.Amount),
		"purchase_id":   rcpt.PurchaseID,
		"fragment_id":   rcpt.FragmentID,
		"amount_paid":   rcpt.Amount,
		"new_influence": rcpt.NewBuyerBalance,
	}, nil
}

func handleRateFragment(w *World, sess *store.Session, agent *store.Agent, params json.RawMessage, now time.Time) (map[string]any, *Error) {
	var p protocol.RateFragmentParams
	if werr := decodeParams(params, &p); werr != nil {
		return nil, werr
	}
	if p.PurchaseID == "" {
		return nil, errf(protocol.ErrValidation, "purchase_id is required")
	}
	if p.Rating < 1 || p.Rating > 5 {
		return nil, errf(protocol.ErrInvalidRating, "rating must be between 1 and 5")
	}

	if err := w.st.RatePurchase(p.PurchaseID, agent.ID, p.Rating, now.Unix()); err != nil {
		return nil, AsError(err)
	}

	w.auditEvent(now.Unix(), EventRate, agent.ID, sess.RoomID, map[string]any{
		"purchase_id": p.PurchaseID,
		"rating":      p.Rating,
	})
	return map[string]any{
		"message": fmt.Sprintf("You rated the fragment %d/5.", p.Rating),
	}, nil
}
