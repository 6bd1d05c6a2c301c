package proceeds_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rentoken-xyz/rent-sell-nft-marketplace/model"
	proceedsrepo "github.com/rentoken-xyz/rent-sell-nft-marketplace/repository/proceeds"
	"github.com/rentoken-xyz/rent-sell-nft-marketplace/service/proceeds"
)

const (
	payee  = model.Address("0x1111111111111111111111111111111111111111")
	market = model.Address("0x9999999999999999999999999999999999999999")
	erc20  = model.Address("0xabcabcabcabcabcabcabcabcabcabcabcabcabca")
)

type fakeDriver struct{}

func (fakeDriver) Open(string) (driver.Conn, error) { return &fakeConn{}, nil }

type fakeConn struct{}

func (*fakeConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not supported") }
func (*fakeConn) Close() error                        { return nil }
func (*fakeConn) Begin() (driver.Tx, error)           { return fakeTx{}, nil }

type fakeTx struct{}

func (fakeTx) Commit() error   { return nil }
func (fakeTx) Rollback() error { return nil }

func init() { sql.Register("fakedb", fakeDriver{}) }

type balancesMem struct {
	m         map[string]*big.Int
	zeroCalls int
}

func bkey(payee, payToken model.Address) string {
	return string(payee.Normalize()) + "/" + string(payToken.Normalize())
}

func (f *balancesMem) bal(payee, payToken model.Address) *big.Int {
	if b, ok := f.m[bkey(payee, payToken)]; ok {
		return new(big.Int).Set(b)
	}
	return big.NewInt(0)
}
func (f *balancesMem) Get(_ context.Context, payee, payToken model.Address) (*big.Int, error) {
	return f.bal(payee, payToken), nil
}
func (f *balancesMem) GetForUpdate(_ context.Context, _ *sql.Tx, payee, payToken model.Address) (*big.Int, error) {
	return f.bal(payee, payToken), nil
}
func (f *balancesMem) Add(_ context.Context, _ *sql.Tx, payee, payToken model.Address, amount *big.Int) error {
	f.m[bkey(payee, payToken)] = new(big.Int).Add(f.bal(payee, payToken), amount)
	return nil
}
func (f *balancesMem) Sub(_ context.Context, _ *sql.Tx, payee, payToken model.Address, amount *big.Int) error {
	b := f.bal(payee, payToken)
	if b.Cmp(amount) < 0 {
		return proceedsrepo.ErrInsufficient
	}
	f.m[bkey(payee, payToken)] = b.Sub(b, amount)
	return nil
}
func (f *balancesMem) Zero(_ context.Context, _ *sql.Tx, payee, payToken model.Address) error {
	f.zeroCalls++
	f.m[bkey(payee, payToken)] = big.NewInt(0)
	return nil
}
func (f *balancesMem) ListByPayee(_ context.Context, who model.Address) ([]model.Proceeds, error) {
	var out []model.Proceeds
	for k, b := range f.m {
		if b.Sign() > 0 && strings.HasPrefix(k, string(who.Normalize())+"/") {
			out = append(out, model.Proceeds{
				Payee:    who.Normalize(),
				PayToken: model.Address(strings.TrimPrefix(k, string(who.Normalize())+"/")),
				Balance:  new(big.Int).Set(b),
			})
		}
	}
	return out, nil
}

type eventsMem struct{ evs []*model.Event }

func (f *eventsMem) Insert(_ context.Context, _ *sql.Tx, ev *model.Event) error {
	f.evs = append(f.evs, ev)
	return nil
}
func (f *eventsMem) ListByType(_ context.Context, _ model.EventType, _ int) ([]model.Event, error) {
	return nil, nil
}

// payoutStub records outbound transfers and can be told to fail them.
type payoutStub struct {
	failPayout bool

	nativeTo     model.Address
	nativeAmount *big.Int
	tokenFrom    model.Address
	tokenTo      model.Address
	tokenAmount  *big.Int
}

func (f *payoutStub) OwnerOf(context.Context, model.Address, string) (model.Address, error) {
	return "", errors.New("not implemented")
}
func (f *payoutStub) GetApproved(context.Context, model.Address, string) (model.Address, error) {
	return "", errors.New("not implemented")
}
func (f *payoutStub) IsApprovedForAll(context.Context, model.Address, model.Address, model.Address) (bool, error) {
	return false, errors.New("not implemented")
}
func (f *payoutStub) TransferFrom(context.Context, model.Address, model.Address, model.Address, string) error {
	return errors.New("not implemented")
}
func (f *payoutStub) UserOf(context.Context, model.Address, string) (model.Address, error) {
	return "", errors.New("not implemented")
}
func (f *payoutStub) SetUser(context.Context, model.Address, string, model.Address, int64) error {
	return errors.New("not implemented")
}
func (f *payoutStub) TransferToken(_ context.Context, _ model.Address, from, to model.Address, amount *big.Int) error {
	if f.failPayout {
		return errors.New("gateway down")
	}
	f.tokenFrom, f.tokenTo, f.tokenAmount = from, to, amount
	return nil
}
func (f *payoutStub) SendNative(_ context.Context, to model.Address, amount *big.Int) error {
	if f.failPayout {
		return errors.New("gateway down")
	}
	f.nativeTo, f.nativeAmount = to, amount
	return nil
}
func (f *payoutStub) VerifyCallbackSignature(string, []byte) error { return nil }

func newService(t *testing.T) (proceeds.Service, *balancesMem, *payoutStub, *eventsMem) {
	t.Helper()
	db, err := sql.Open("fakedb", "")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	balances := &balancesMem{m: map[string]*big.Int{}}
	chain := &payoutStub{}
	events := &eventsMem{}
	return proceeds.New(db, balances, events, chain, market), balances, chain, events
}

func TestWithdraw_NativeZeroesAndPaysOut(t *testing.T) {
	svc, balances, chain, events := newService(t)
	balances.m[bkey(payee, model.ZeroAddress)] = big.NewInt(48_750)

	got, err := svc.Withdraw(context.Background(), payee, model.ZeroAddress)
	require.NoError(t, err)
	require.Equal(t, int64(48_750), got.Int64())

	require.Zero(t, balances.bal(payee, model.ZeroAddress).Sign())
	require.Equal(t, payee, chain.nativeTo)
	require.Equal(t, int64(48_750), chain.nativeAmount.Int64())

	require.Len(t, events.evs, 1)
	require.Equal(t, model.EventProceedsWithdrawn, events.evs[0].Type)
}

func TestWithdraw_Erc20PaysFromMarketplace(t *testing.T) {
	svc, balances, chain, _ := newService(t)
	balances.m[bkey(payee, erc20)] = big.NewInt(500)

	got, err := svc.Withdraw(context.Background(), payee, erc20)
	require.NoError(t, err)
	require.Equal(t, int64(500), got.Int64())

	require.Equal(t, market, chain.tokenFrom)
	require.Equal(t, payee, chain.tokenTo)
	require.Equal(t, int64(500), chain.tokenAmount.Int64())
}

func TestWithdraw_ZeroBalanceIsInert(t *testing.T) {
	svc, balances, chain, events := newService(t)

	got, err := svc.Withdraw(context.Background(), payee, model.ZeroAddress)
	require.NoError(t, err)
	require.Zero(t, got.Sign())

	require.Zero(t, balances.zeroCalls)
	require.Nil(t, chain.nativeAmount)
	require.Empty(t, events.evs)
}

func TestWithdraw_PayoutFailureRestoresBalance(t *testing.T) {
	svc, balances, chain, _ := newService(t)
	balances.m[bkey(payee, model.ZeroAddress)] = big.NewInt(1_000)
	chain.failPayout = true

	_, err := svc.Withdraw(context.Background(), payee, model.ZeroAddress)
	require.Error(t, err)

	// funds are back, a later withdrawal can succeed
	require.Equal(t, int64(1_000), balances.bal(payee, model.ZeroAddress).Int64())

	chain.failPayout = false
	got, err := svc.Withdraw(context.Background(), payee, model.ZeroAddress)
	require.NoError(t, err)
	require.Equal(t, int64(1_000), got.Int64())
}

func TestProceeds_ReadsBalance(t *testing.T) {
	svc, balances, _, _ := newService(t)
	balances.m[bkey(payee, erc20)] = big.NewInt(42)

	got, err := svc.Proceeds(context.Background(), payee, erc20)
	require.NoError(t, err)
	require.Equal(t, int64(42), got.Int64())
}

func TestAllProceeds_ListsNonZeroBalances(t *testing.T) {
	svc, balances, _, _ := newService(t)
	balances.m[bkey(payee, model.ZeroAddress)] = big.NewInt(100)
	balances.m[bkey(payee, erc20)] = big.NewInt(200)

	got, err := svc.AllProceeds(context.Background(), payee)
	require.NoError(t, err)
	require.Len(t, got, 2)
}
