package service

import (
	"context"
	"strings"
	"testing"

	"brandlink/internal/apperror"
	"brandlink/internal/domain"
	"brandlink/pkg/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithdrawDebitsAfterTransfer(t *testing.T) {
	f := newFixture(t)
	f.fundWallet(t, "1000")
	acct := f.addBankAccount(t)
	before := f.gateway.transferCount()

	entry, err := f.wallets.Withdraw(context.Background(), f.influencerUser.ID, dec("500"))
	require.NoError(t, err)

	assert.Equal(t, domain.EntryDebit, entry.Type)
	assert.Equal(t, domain.SourceWalletWithdrawal, entry.SourceType)
	assert.True(t, entry.Consistent())
	assert.True(t, entry.BalanceBefore.Equal(dec("920")))
	assert.True(t, entry.BalanceAfter.Equal(dec("420")))

	w := f.wallet(t)
	assert.True(t, w.Balance.Equal(dec("420")))
	assert.True(t, w.TotalWithdrawals.Equal(dec("500")))
	require.NoError(t, w.Check())

	require.Equal(t, before+1, f.gateway.transferCount())
	wdr := f.gateway.transfersWithPrefix("wdr_")
	require.Len(t, wdr, 1)
	assert.Equal(t, entry.Reference, wdr[0].Reference)
	assert.Equal(t, acct.RecipientCode, wdr[0].RecipientCode)
	assert.Equal(t, []string{entry.Reference}, f.notifier.debits)
}

func TestWithdrawOverBalanceRejectedWithoutSideEffects(t *testing.T) {
	f := newFixture(t)
	f.fundWallet(t, "1000")
	f.addBankAccount(t)
	before := f.gateway.transferCount()

	_, err := f.wallets.Withdraw(context.Background(), f.influencerUser.ID, dec("920.01"))
	assert.True(t, apperror.IsValidation(err))
	assert.Equal(t, before, f.gateway.transferCount())

	w := f.wallet(t)
	assert.True(t, w.Balance.Equal(dec("920")))
	assert.True(t, w.TotalWithdrawals.IsZero())
}

func TestWithdrawPreconditions(t *testing.T) {
	f := newFixture(t)

	_, err := f.wallets.Withdraw(context.Background(), f.influencerUser.ID, dec("0"))
	assert.True(t, apperror.IsValidation(err))

	_, err = f.wallets.Withdraw(context.Background(), f.brandUser.ID, dec("10"))
	assert.True(t, apperror.IsNotFound(err), "brands have no influencer profile")

	_, err = f.wallets.Withdraw(context.Background(), f.influencerUser.ID, dec("10"))
	assert.True(t, apperror.IsNotFound(err), "no wallet yet")

	f.fundWallet(t, "100")
	before := f.gateway.transferCount()
	_, err = f.wallets.Withdraw(context.Background(), f.influencerUser.ID, dec("10"))
	assert.True(t, apperror.IsValidation(err), "no bank account")
	assert.Equal(t, before, f.gateway.transferCount())
}

func TestWithdrawGatewayFailureKeepsBalance(t *testing.T) {
	f := newFixture(t)
	f.fundWallet(t, "1000")
	f.addBankAccount(t)
	f.gateway.transferErr = failRefsWithPrefix("wdr_")

	_, err := f.wallets.Withdraw(context.Background(), f.influencerUser.ID, dec("100"))
	assert.True(t, apperror.IsGateway(err))

	w := f.wallet(t)
	assert.True(t, w.Balance.Equal(dec("920")))
	entries, total, err := f.wallets.ListWalletTransactions(context.Background(), f.influencerUser.ID, domain.UserTypeInfluencer, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, domain.EntryCredit, entries[0].Type)
}

func TestWithdrawRefusedTransferKeepsBalance(t *testing.T) {
	f := newFixture(t)
	f.fundWallet(t, "1000")
	f.addBankAccount(t)
	f.gateway.transferStatus = func(req payment.TransferRequest) string {
		if strings.HasPrefix(req.Reference, "wdr_") {
			return payment.TransferFailed
		}
		return payment.TransferSuccess
	}

	entry, err := f.wallets.Withdraw(context.Background(), f.influencerUser.ID, dec("500"))
	assert.True(t, apperror.IsGateway(err))
	assert.Nil(t, entry)
	require.Len(t, f.gateway.transfersWithPrefix("wdr_"), 1)

	w := f.wallet(t)
	assert.True(t, w.Balance.Equal(dec("920")))
	assert.True(t, w.TotalWithdrawals.IsZero())
	require.NoError(t, w.Check())
	assert.Empty(t, f.notifier.debits)
}

func TestWithdrawalFailureEventReversesDebit(t *testing.T) {
	f := newFixture(t)
	f.fundWallet(t, "1000")
	f.addBankAccount(t)
	entry, err := f.wallets.Withdraw(context.Background(), f.influencerUser.ID, dec("300"))
	require.NoError(t, err)

	ev := TransferEvent{Reference: entry.Reference, Success: false, Reason: "Could not credit account"}
	require.NoError(t, f.settlement.HandleTransferEvent(context.Background(), ev))
	require.NoError(t, f.settlement.HandleTransferEvent(context.Background(), ev))

	w := f.wallet(t)
	assert.True(t, w.Balance.Equal(dec("920")))
	assert.True(t, w.TotalEarnings.Equal(dec("920")))
	assert.True(t, w.TotalWithdrawals.IsZero())
	require.NoError(t, w.Check())

	rev, err := f.store.Wallets.GetEntryByReference("rev_" + entry.Reference)
	require.NoError(t, err)
	assert.Equal(t, domain.SourceWithdrawalReversal, rev.SourceType)
	assert.True(t, rev.Consistent())

	_, total, err := f.wallets.ListWalletTransactions(context.Background(), f.influencerUser.ID, domain.UserTypeInfluencer, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
}

func TestGetWalletDefaultsToEmpty(t *testing.T) {
	f := newFixture(t)
	w, err := f.wallets.GetWallet(context.Background(), f.brandUser.ID, domain.UserTypeBrand)
	require.NoError(t, err)
	assert.True(t, w.Balance.IsZero())
	assert.Equal(t, "NGN", w.Currency)

	entries, total, err := f.wallets.ListWalletTransactions(context.Background(), f.brandUser.ID, domain.UserTypeBrand, 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, entries)
}

func TestListTransactionsByRole(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		f.initiate(t, "100")
	}

	rows, total, err := f.wallets.ListTransactions(context.Background(), domain.RoleBrand, f.brand.ID, 0, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, rows, 2)

	rows, total, err = f.wallets.ListTransactions(context.Background(), domain.RoleInfluencer, f.influencer.ID, 2, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, rows, 1)

	_, _, err = f.wallets.ListTransactions(context.Background(), domain.RoleAdmin, 1, 0, 10)
	assert.True(t, apperror.IsValidation(err))
}

var _ payment.Gateway = (*fakeGateway)(nil)
