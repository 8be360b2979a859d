package world

import (
	"fmt"
	"math"
	"testing"

	"moltmud.ai/internal/protocol"
)

func shareFragment(t *testing.T, w *World, token, content string) string {
	t.Helper()
	resp := mustAct(t, w, token, protocol.ActionShareFragment, protocol.ShareFragmentParams{
		Content: content,
		Topics:  []string{"lore"},
	})
	id, _ := resp.Result["fragment_id"].(string)
	if id == "" {
		t.Fatalf("no fragment_id in result: %+v", resp.Result)
	}
	return id
}

func TestPurchaseTransfersInfluence(t *testing.T) {
	w, _ := newTestWorld(t)

	seller := mustConnect(t, w, "seller", "Sera")
	buyer := mustConnect(t, w, "buyer", "Bram")
	fragID := shareFragment(t, w, seller.SessionToken, "the garden gate sticks; lift, then push")

	resp := mustAct(t, w, buyer.SessionToken, protocol.ActionPurchaseFragment,
		protocol.PurchaseFragmentParams{FragmentID: fragID})

	amount, _ := resp.Result["amount_paid"].(float64)
	if math.Abs(amount-1) > 1e-9 {
		t.Fatalf("amount_paid = %v, want 1 (base value, no purchases yet)", amount)
	}
	if resp.NewState.Agent.Influence != 9 {
		t.Fatalf("buyer influence = %v, want 9", resp.NewState.Agent.Influence)
	}

	st, _ := w.State(seller.SessionToken)
	if st.Agent.Influence != 11 {
		t.Fatalf("seller influence = %v, want 11", st.Agent.Influence)
	}

	balance, earned, spent, err := w.st.TotalInfluence()
	if err != nil {
		t.Fatalf("total influence: %v", err)
	}
	if math.Abs(balance-20) > 1e-9 {
		t.Fatalf("total influence = %v, want 20 (conserved)", balance)
	}
	if math.Abs(earned-1) > 1e-9 || math.Abs(spent-1) > 1e-9 {
		t.Fatalf("earned/spent = %v/%v, want 1/1", earned, spent)
	}
}

func TestPurchasePriceRisesWithDemand(t *testing.T) {
	w, _ := newTestWorld(t)

	seller := mustConnect(t, w, "seller", "Sera")
	fragID := shareFragment(t, w, seller.SessionToken, "popular wisdom")

	// Eight distinct buyers, each paying the then-current price:
	// 1.0, 1.5, 2.0, ... 4.5.
	for i := 0; i < 8; i++ {
		b := mustConnect(t, w, fmt.Sprintf("b%d", i), fmt.Sprintf("Buyer%d", i))
		resp := mustAct(t, w, b.SessionToken, protocol.ActionPurchaseFragment,
			protocol.PurchaseFragmentParams{FragmentID: fragID})
		amount, _ := resp.Result["amount_paid"].(float64)
		want := 1 + float64(i)*0.5
		if math.Abs(amount-want) > 1e-9 {
			t.Fatalf("purchase %d: amount = %v, want %v", i, amount, want)
		}
	}

	// The ninth buyer pays base 1 + 8*0.5 = 5 out of a starting 10.
	last := mustConnect(t, w, "b8", "Buyer8")
	resp := mustAct(t, w, last.SessionToken, protocol.ActionPurchaseFragment,
		protocol.PurchaseFragmentParams{FragmentID: fragID})
	if amount, _ := resp.Result["amount_paid"].(float64); math.Abs(amount-5) > 1e-9 {
		t.Fatalf("ninth purchase: amount = %v, want 5", amount)
	}
	if resp.NewState.Agent.Influence != 5 {
		t.Fatalf("ninth buyer influence = %v, want 5", resp.NewState.Agent.Influence)
	}
}

func TestPurchaseRejectsSelfAndUnknown(t *testing.T) {
	w, _ := newTestWorld(t)

	seller := mustConnect(t, w, "seller", "Sera")
	fragID := shareFragment(t, w, seller.SessionToken, "my own note")

	werr := actErr(t, w, seller.SessionToken, protocol.ActionPurchaseFragment,
		protocol.PurchaseFragmentParams{FragmentID: fragID})
	if werr.Code != protocol.ErrSelfPurchase {
		t.Fatalf("self purchase: code = %s, want %s", werr.Code, protocol.ErrSelfPurchase)
	}

	werr = actErr(t, w, seller.SessionToken, protocol.ActionPurchaseFragment,
		protocol.PurchaseFragmentParams{FragmentID: "frag_missing"})
	if werr.Code != protocol.ErrFragmentNotFound {
		t.Fatalf("unknown fragment: code = %s, want %s", werr.Code, protocol.ErrFragmentNotFound)
	}
}

func TestPurchaseInsufficientInfluence(t *testing.T) {
	w, _ := newTestWorld(t)

	seller := mustConnect(t, w, "seller", "Sera")
	fragID := shareFragment(t, w, seller.SessionToken, "deep secrets")

	// Drive the price past the starting balance.
	for i := 0; i < 19; i++ {
		b := mustConnect(t, w, fmt.Sprintf("b%d", i), fmt.Sprintf("Buyer%d", i))
		mustAct(t, w, b.SessionToken, protocol.ActionPurchaseFragment,
			protocol.PurchaseFragmentParams{FragmentID: fragID})
	}

	// Price is now 1 + 19*0.5 = 10.5 against a balance of 10.
	poor := mustConnect(t, w, "poor", "Pim")
	werr := actErr(t, w, poor.SessionToken, protocol.ActionPurchaseFragment,
		protocol.PurchaseFragmentParams{FragmentID: fragID})
	if werr.Code != protocol.ErrInsufficientInfluence {
		t.Fatalf("code = %s, want %s", werr.Code, protocol.ErrInsufficientInfluence)
	}
	st, _ := w.State(poor.SessionToken)
	if st.Agent.Influence != 10 {
		t.Fatalf("failed purchase touched balance: %v", st.Agent.Influence)
	}
}

func TestRatingFlow(t *testing.T) {
	w, _ := newTestWorld(t)

	seller := mustConnect(t, w, "seller", "Sera")
	buyer := mustConnect(t, w, "buyer", "Bram")
	fragID := shareFragment(t, w, seller.SessionToken, "worth every point")

	resp := mustAct(t, w, buyer.SessionToken, protocol.ActionPurchaseFragment,
		protocol.PurchaseFragmentParams{FragmentID: fragID})
	purID, _ := resp.Result["purchase_id"].(string)
	if purID == "" {
		t.Fatalf("no purchase_id: %+v", resp.Result)
	}

	mustAct(t, w, buyer.SessionToken, protocol.ActionRateFragment,
		protocol.RateFragmentParams{PurchaseID: purID, Rating: 5})

	// A 5-star rating lifts both the fragment price and the author's
	// reputation.
	st, _ := w.State(buyer.SessionToken)
	var found bool
	for _, f := range st.FragmentsOnWall {
		if f.ID == fragID {
			found = true
			if f.AvgRating != 5 {
				t.Fatalf("avg rating = %v, want 5", f.AvgRating)
			}
			want := 1 + 1*0.5 + 5*2.0
			if math.Abs(f.Value-want) > 1e-9 {
				t.Fatalf("value = %v, want %v", f.Value, want)
			}
		}
	}
	if !found {
		t.Fatal("fragment missing from wall")
	}
	sellerState, _ := w.State(seller.SessionToken)
	if sellerState.Agent.Reputation != 5 {
		t.Fatalf("seller reputation = %v, want 5", sellerState.Agent.Reputation)
	}

	// Each purchase carries exactly one rating.
	werr := actErr(t, w, buyer.SessionToken, protocol.ActionRateFragment,
		protocol.RateFragmentParams{PurchaseID: purID, Rating: 4})
	if werr.Code != protocol.ErrDuplicateRating {
		t.Fatalf("duplicate: code = %s, want %s", werr.Code, protocol.ErrDuplicateRating)
	}

	// Only the buyer may rate the purchase.
	werr = actErr(t, w, seller.SessionToken, protocol.ActionRateFragment,
		protocol.RateFragmentParams{PurchaseID: purID, Rating: 1})
	if werr.Code != protocol.ErrNoPermission {
		t.Fatalf("non-buyer: code = %s, want %s", werr.Code, protocol.ErrNoPermission)
	}
}

func TestRatingBounds(t *testing.T) {
	w, _ := newTestWorld(t)
	a := mustConnect(t, w, "a1", "Ada")

	for _, r := range []int{0, 6, -1} {
		werr := actErr(t, w, a.SessionToken, protocol.ActionRateFragment,
			protocol.RateFragmentParams{PurchaseID: "pur_x", Rating: r})
		if werr.Code != protocol.ErrInvalidRating {
			t.Fatalf("rating %d: code = %s, want %s", r, werr.Code, protocol.ErrInvalidRating)
		}
	}
}
