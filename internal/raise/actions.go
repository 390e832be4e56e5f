package raise

import (
	"context"
	"strconv"

	apperrors "github.com/blues/raise/internal/errors"
	"github.com/blues/raise/internal/event"
	"github.com/blues/raise/internal/subscription"
	"github.com/ethereum/go-ethereum/common"
)

const stageMsg = "not at correct stage"

// Subscribe 投资人提交认购，并将 shares×price 的资金转入托管
func (r *Raise) Subscribe(ctx context.Context, caller common.Address, id string, shares uint64) ([]event.Event, error) {
	return r.apply(ctx, func(t *tx) error {
		if err := r.requireInvestor(ctx, caller); err != nil {
			return err
		}
		if err := r.window.RequireOpen(t.now); err != nil {
			return err
		}
		if err := r.requireStage(t, stageMsg, Funding); err != nil {
			return err
		}
		if shares == 0 {
			return apperrors.New(apperrors.CodeCapViolation, "zero shares")
		}
		cost, err := r.cost(shares)
		if err != nil {
			return err
		}
		if cost.Cmp(r.minSubscription) < 0 {
			return apperrors.New(apperrors.CodeCapViolation, "below minimum subscription")
		}
		if shares > t.st.pool.AvailableShares() {
			return apperrors.New(apperrors.CodeCapViolation, "above available")
		}
		allowance, err := t.asset.Allowance(ctx, caller, r.deps.Address)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeTransferFailed, "read allowance", err)
		}
		if allowance.Cmp(cost) < 0 {
			return apperrors.New(apperrors.CodeInsufficientAllowance, "above allowance")
		}
		if err := t.st.book.Propose(subscription.Subscription{ID: id, Investor: caller, Shares: shares, Cost: cost}); err != nil {
			return err
		}
		if err := t.asset.TransferFrom(ctx, r.deps.Address, caller, r.deps.Address, cost); err != nil {
			return transferErr(err)
		}
		t.st.pulled.Add(t.st.pulled, cost)

		r.emit(t, event.SubscriptionProposal,
			"id", id,
			"investor", caller.Hex(),
			"shares", strconv.FormatUint(shares, 10),
			"cost", cost.String())
		return nil
	})
}

// IssuerSubscription 发行方接受或拒绝待审认购
func (r *Raise) IssuerSubscription(ctx context.Context, caller common.Address, id string, accept bool) ([]event.Event, error) {
	return r.apply(ctx, func(t *tx) error {
		if err := r.requireIssuer(caller); err != nil {
			return err
		}
		if err := r.requireStage(t, stageMsg, Funding); err != nil {
			return err
		}
		if _, status := t.st.book.Lookup(id); status != subscription.StatusPending {
			return apperrors.New(apperrors.CodeNotFound, "subscription does not exist")
		}

		if !accept {
			sub, err := t.st.book.Decline(id)
			if err != nil {
				return err
			}
			if err := r.payout(t, sub.Investor, sub); err != nil {
				return err
			}
			r.emit(t, event.SubscriptionDeclined,
				"id", id,
				"investor", sub.Investor.Hex(),
				"shares", strconv.FormatUint(sub.Shares, 10),
				"cost", sub.Cost.String())
			return nil
		}

		if t.st.pool.MaxCapReached() {
			return apperrors.New(apperrors.CodeCapViolation, "max sold already met")
		}
		sub, err := t.st.book.Accept(id)
		if err != nil {
			return err
		}
		if err := t.st.pool.UpdateSold(sub.Investor, sub.Shares); err != nil {
			return err
		}
		r.emit(t, event.SubscriptionAccepted,
			"id", id,
			"investor", sub.Investor.Hex(),
			"shares", strconv.FormatUint(sub.Shares, 10),
			"cost", sub.Cost.String())
		return nil
	})
}

func (r *Raise) payout(t *tx, to common.Address, sub subscription.Subscription) error {
	if sub.Cost.Sign() == 0 {
		return nil
	}
	if err := t.asset.Transfer(t.ctx, r.deps.Address, to, sub.Cost); err != nil {
		return transferErr(err)
	}
	return nil
}

// IssuerClose 窗口关闭后发行方确认或放弃本次募资
func (r *Raise) IssuerClose(ctx context.Context, caller common.Address, approve bool) ([]event.Event, error) {
	return r.apply(ctx, func(t *tx) error {
		if err := r.requireIssuer(caller); err != nil {
			return err
		}
		if err := r.requireStage(t, stageMsg, Funding); err != nil {
			return err
		}
		if err := r.window.RequireClosed(t.now); err != nil {
			return err
		}
		switch {
		case approve && t.st.pool.MinCapReached():
			t.st.stage = PendingOperatorApproval
			r.emit(t, event.RaiseClosed, "successful", "true", "sold", strconv.FormatUint(t.st.pool.Sold(), 10))
		case approve:
			t.st.stage = AwaitingSettlement
			r.emit(t, event.UnsuccessfulRaise, "sold", strconv.FormatUint(t.st.pool.Sold(), 10))
		default:
			t.st.stage = AwaitingSettlement
			r.emit(t, event.RaiseClosed, "successful", "false", "sold", strconv.FormatUint(t.st.pool.Sold(), 10))
		}
		return nil
	})
}

// BatchReleasePending 退回所列账户的待审资金
func (r *Raise) BatchReleasePending(ctx context.Context, caller common.Address, accounts []common.Address) ([]event.Event, error) {
	return r.apply(ctx, func(t *tx) error {
		if err := r.requireSettler(ctx, caller); err != nil {
			return err
		}
		if err := r.requireStage(t, stageMsg, AwaitingSettlement, Finalized); err != nil {
			return err
		}
		if err := checkBatch(accounts); err != nil {
			return err
		}
		for _, a := range accounts {
			amount := t.st.book.ReleasePending(a)
			if amount.Sign() == 0 {
				continue
			}
			if err := t.asset.Transfer(ctx, r.deps.Address, a, amount); err != nil {
				return transferErr(err)
			}
			t.st.refunded.Add(t.st.refunded, amount)
			r.emit(t, event.PendingReleased, "investor", a.Hex(), "amount", amount.String())
		}
		return nil
	})
}

// ReleaseAllFunds 退回所列账户的已接受资金
func (r *Raise) ReleaseAllFunds(ctx context.Context, caller common.Address, accounts []common.Address) ([]event.Event, error) {
	return r.apply(ctx, func(t *tx) error {
		if err := r.requireSettler(ctx, caller); err != nil {
			return err
		}
		if err := r.requireStage(t, stageMsg, AwaitingSettlement); err != nil {
			return err
		}
		if err := checkBatch(accounts); err != nil {
			return err
		}
		for _, a := range accounts {
			amount := t.st.book.ReleaseAccepted(a)
			if amount.Sign() == 0 {
				continue
			}
			if err := t.asset.Transfer(ctx, r.deps.Address, a, amount); err != nil {
				return transferErr(err)
			}
			t.st.refunded.Add(t.st.refunded, amount)
			r.emit(t, event.FundsReleased, "investor", a.Hex(), "amount", amount.String())
		}
		return nil
	})
}

// OperatorFinalize 运营方确认或驳回发行方的关闭结果
func (r *Raise) OperatorFinalize(ctx context.Context, caller common.Address, approve bool) ([]event.Event, error) {
	return r.apply(ctx, func(t *tx) error {
		if err := r.requireOperator(ctx, caller); err != nil {
			return err
		}
		if err := r.requireStage(t, "incorrect stage", PendingOperatorApproval); err != nil {
			return err
		}
		if approve {
			t.st.stage = Finalized
		} else {
			t.st.stage = AwaitingSettlement
		}
		r.emit(t, event.OperatorRaiseFinalization, "approved", strconv.FormatBool(approve))
		return nil
	})
}

// ReleaseToIssuer 将已接受资金总额支付给发行方，仅一次
func (r *Raise) ReleaseToIssuer(ctx context.Context, caller common.Address) ([]event.Event, error) {
	return r.apply(ctx, func(t *tx) error {
		if err := r.requireOperator(ctx, caller); err != nil {
			return err
		}
		if err := r.requireStage(t, stageMsg, Finalized); err != nil {
			return err
		}
		if t.st.issuerPaid {
			return apperrors.New(apperrors.CodeAlreadyPaid, "issuer already paid")
		}
		amount := t.st.book.TotalAccepted()
		if amount.Sign() > 0 {
			if err := t.asset.Transfer(ctx, r.deps.Address, r.issuer, amount); err != nil {
				return transferErr(err)
			}
		}
		t.st.issuerPaid = true
		r.emit(t, event.IssuerPaid, "issuer", r.issuer.Hex(), "amount", amount.String())
		return nil
	})
}

// Close 资金清空或已放款后关闭实例
func (r *Raise) Close(ctx context.Context, caller common.Address) ([]event.Event, error) {
	return r.apply(ctx, func(t *tx) error {
		if err := r.requireSettler(ctx, caller); err != nil {
			return err
		}
		if err := r.window.RequireClosed(t.now); err != nil {
			return err
		}
		switch t.st.stage {
		case AwaitingSettlement:
			if t.st.book.TotalPending().Sign() != 0 {
				return apperrors.New(apperrors.CodeFundsNotEmptied, "pending not emptied")
			}
			if t.st.book.TotalAccepted().Sign() != 0 {
				return apperrors.New(apperrors.CodeFundsNotEmptied, "not emptied")
			}
		case Finalized:
			if !t.st.issuerPaid {
				return apperrors.New(apperrors.CodeFundsNotEmptied, "issuer not been paid")
			}
			if t.st.book.TotalPending().Sign() != 0 {
				return apperrors.New(apperrors.CodeFundsNotEmptied, "pending not emptied")
			}
		default:
			return r.requireStage(t, stageMsg, AwaitingSettlement, Finalized)
		}
		t.st.stage = Closed
		r.emit(t, event.OperatorClosed, "stage", strconv.Itoa(int(Closed)))
		return nil
	})
}

func transferErr(err error) error {
	if apperrors.GetCode(err) != apperrors.CodeUnknown {
		return err
	}
	return apperrors.Wrap(apperrors.CodeTransferFailed, "asset transfer", err)
}
