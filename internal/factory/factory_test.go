package factory

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/blues/raise/internal/deploy"
	apperrors "github.com/blues/raise/internal/errors"
	"github.com/blues/raise/internal/event"
	"github.com/blues/raise/internal/ledger"
	"github.com/blues/raise/internal/raise"
	"github.com/blues/raise/internal/roles"
	"github.com/ethereum/go-ethereum/common"
)

var (
	factoryAddr = common.HexToAddress("0xfac")
	implV1      = common.HexToAddress("0x1001")
	implV2      = common.HexToAddress("0x1002")
	proxyAdmin  = common.HexToAddress("0xad")
	operator    = common.HexToAddress("0x0e")
	issuer      = common.HexToAddress("0x1551")
	attacker    = common.HexToAddress("0xbad")
	equity      = common.HexToAddress("0xe9")

	now = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
)

type fixture struct {
	ctx    context.Context
	roles  *roles.Static
	token  *ledger.Token
	cloner *deploy.Cloner
	f      *Factory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fx := &fixture{
		ctx:    context.Background(),
		roles:  roles.NewStatic(),
		token:  ledger.NewToken(common.HexToAddress("0xdcf")),
		cloner: deploy.NewCloner(factoryAddr),
	}
	fx.roles.Grant(roles.Operator, operator)
	fx.roles.Grant(roles.Issuer, issuer)
	clock := func() time.Time { return now }
	fx.f = New(Deps{Address: factoryAddr, Deployer: fx.cloner, Roles: fx.roles, Clock: clock}, proxyAdmin, implV1)
	build := func(instance common.Address) raise.Deps {
		return raise.Deps{Address: instance, Asset: fx.token, Roles: fx.roles, Clock: clock}
	}
	fx.f.Register(implV1, build)
	fx.f.Register(implV2, build)
	return fx
}

func params() raise.Params {
	opening := now.Add(24 * time.Hour)
	return raise.Params{
		ShareToken:      equity,
		MinCap:          1000,
		MaxCap:          100000,
		Price:           big.NewInt(250),
		MinSubscription: big.NewInt(10000),
		Opening:         opening,
		Closing:         opening.Add(10 * 24 * time.Hour),
	}
}

func TestNewRaiseProposal(t *testing.T) {
	fx := newFixture(t)

	events, err := fx.f.NewRaiseProposal(fx.ctx, issuer, "p1")
	if err != nil {
		t.Fatalf("NewRaiseProposal: %v", err)
	}
	if len(events) != 1 || events[0].Type != event.NewProposal || events[0].Source != event.SourceFactory {
		t.Fatalf("events = %v", events)
	}
	if fx.f.Raise("p1").Issuer != issuer || fx.f.ImplementationExists("p1") {
		t.Fatalf("record = %+v", fx.f.Raise("p1"))
	}

	tests := []struct {
		name   string
		caller common.Address
		id     string
		code   apperrors.Code
	}{
		{"duplicate id", issuer, "p1", apperrors.CodeDuplicateID},
		{"not issuer", attacker, "p2", apperrors.CodeRoleDenied},
		{"empty id", issuer, "", apperrors.CodeInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fx.f.NewRaiseProposal(fx.ctx, tt.caller, tt.id)
			if !apperrors.IsCode(err, tt.code) {
				t.Fatalf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestOperatorProposalReject(t *testing.T) {
	fx := newFixture(t)
	if _, err := fx.f.NewRaiseProposal(fx.ctx, issuer, "p1"); err != nil {
		t.Fatalf("NewRaiseProposal: %v", err)
	}

	_, err := fx.f.OperatorProposal(fx.ctx, operator, "missing", true, params())
	if !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Fatalf("unknown id err = %v", err)
	}
	_, err = fx.f.OperatorProposal(fx.ctx, attacker, "p1", false, params())
	if !apperrors.IsCode(err, apperrors.CodeRoleDenied) {
		t.Fatalf("attacker err = %v", err)
	}

	events, err := fx.f.OperatorProposal(fx.ctx, operator, "p1", false, params())
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if events[0].Type != event.ProposalDeclined {
		t.Fatalf("events = %v", events)
	}
	if fx.f.Raise("p1").Issuer != (common.Address{}) {
		t.Fatal("placeholder not deleted")
	}
}

func TestOperatorProposalAccept(t *testing.T) {
	fx := newFixture(t)
	if _, err := fx.f.NewRaiseProposal(fx.ctx, issuer, "p1"); err != nil {
		t.Fatalf("NewRaiseProposal: %v", err)
	}

	events, err := fx.f.OperatorProposal(fx.ctx, operator, "p1", true, params())
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if len(events) != 2 || events[0].Type != event.RaiseDeployed || events[1].Type != event.ProposalAccepted {
		t.Fatalf("events = %v", events)
	}
	if !fx.f.ImplementationExists("p1") || fx.f.Token("p1") != equity || fx.f.Issuer("p1") != issuer {
		t.Fatalf("record = %+v", fx.f.Raise("p1"))
	}

	impl, instance := fx.f.ImplementationAndProxy("p1")
	if impl != implV1 {
		t.Fatalf("implementation = %s", impl.Hex())
	}
	r, ok := fx.f.Instance(instance)
	if !ok || !r.Initialized() {
		t.Fatal("instance not registered")
	}
	if r.Issuer() != issuer || r.MinCap() != 1000 || r.MaxCap() != 100000 || r.Price().Int64() != 250 {
		t.Fatal("instance initialised with wrong params")
	}
	if p, ok := fx.cloner.Proxy(instance); !ok || p.Admin != proxyAdmin {
		t.Fatalf("proxy = %+v", p)
	}

	_, err = fx.f.OperatorProposal(fx.ctx, operator, "p1", true, params())
	if !apperrors.IsCode(err, apperrors.CodeDuplicateID) {
		t.Fatalf("second approve err = %v", err)
	}
}

func TestOperatorProposalInvalidParams(t *testing.T) {
	fx := newFixture(t)
	if _, err := fx.f.NewRaiseProposal(fx.ctx, issuer, "p1"); err != nil {
		t.Fatalf("NewRaiseProposal: %v", err)
	}
	p := params()
	p.MinCap = 0
	_, err := fx.f.OperatorProposal(fx.ctx, operator, "p1", true, p)
	if !apperrors.IsCode(err, apperrors.CodeInvalidCapConfig) {
		t.Fatalf("err = %v", err)
	}
	p = params()
	p.Opening = now.Add(-time.Hour)
	_, err = fx.f.OperatorProposal(fx.ctx, operator, "p1", true, p)
	if !apperrors.IsCode(err, apperrors.CodeInvalidWindowConfig) {
		t.Fatalf("err = %v", err)
	}
	if fx.f.ImplementationExists("p1") || len(fx.f.Instances()) != 0 || fx.cloner.Nonce() != 0 {
		t.Fatal("failed approval changed state")
	}
}

func TestCommitFailureLeavesFactoryUnchanged(t *testing.T) {
	fx := newFixture(t)
	if _, err := fx.f.NewRaiseProposal(fx.ctx, issuer, "p1"); err != nil {
		t.Fatalf("NewRaiseProposal: %v", err)
	}
	var deployed *raise.Raise
	fx.f.deps.Commit = func(_ context.Context, s Snapshot, events []event.Event, r *raise.Raise) error {
		deployed = r
		return errors.New("database unavailable")
	}
	if _, err := fx.f.OperatorProposal(fx.ctx, operator, "p1", true, params()); err == nil {
		t.Fatal("expected commit failure")
	}
	if deployed == nil {
		t.Fatal("commit did not receive the deployed instance")
	}
	if fx.f.ImplementationExists("p1") || len(fx.f.Instances()) != 0 {
		t.Fatal("commit failure leaked state")
	}

	fx.f.deps.Commit = nil
	if _, err := fx.f.OperatorProposal(fx.ctx, operator, "p1", true, params()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if _, instance := fx.f.ImplementationAndProxy("p1"); instance == deployed.Address() {
		t.Fatal("burned address reused")
	}
}

func TestUpdateImplementation(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.f.UpdateImplementation(fx.ctx, attacker, implV2)
	if !apperrors.IsCode(err, apperrors.CodeRoleDenied) {
		t.Fatalf("attacker err = %v", err)
	}
	_, err = fx.f.UpdateImplementation(fx.ctx, operator, common.HexToAddress("0x9999"))
	if !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Fatalf("unregistered err = %v", err)
	}
	events, err := fx.f.UpdateImplementation(fx.ctx, operator, implV2)
	if err != nil {
		t.Fatalf("UpdateImplementation: %v", err)
	}
	if fx.f.Implementation() != implV2 || events[0].Address("implementation") != implV2 {
		t.Fatal("implementation not updated")
	}

	if _, err := fx.f.NewRaiseProposal(fx.ctx, issuer, "p1"); err != nil {
		t.Fatalf("NewRaiseProposal: %v", err)
	}
	if _, err := fx.f.OperatorProposal(fx.ctx, operator, "p1", true, params()); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if impl, _ := fx.f.ImplementationAndProxy("p1"); impl != implV2 {
		t.Fatalf("deployed against %s", impl.Hex())
	}
}

func TestUpdateProxyAdmin(t *testing.T) {
	fx := newFixture(t)
	tests := []struct {
		name   string
		caller common.Address
		admin  common.Address
	}{
		{"attacker", attacker, operator},
		{"zero address", proxyAdmin, common.Address{}},
		{"operator is not admin", operator, operator},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fx.f.UpdateProxyAdmin(fx.ctx, tt.caller, tt.admin)
			if !apperrors.IsCode(err, apperrors.CodeRoleDenied) {
				t.Fatalf("err = %v", err)
			}
		})
	}
	if _, err := fx.f.UpdateProxyAdmin(fx.ctx, proxyAdmin, operator); err != nil {
		t.Fatalf("UpdateProxyAdmin: %v", err)
	}
	if fx.f.ProxyAdmin() != operator {
		t.Fatalf("proxy admin = %s", fx.f.ProxyAdmin().Hex())
	}
}

func TestSnapshotRestore(t *testing.T) {
	fx := newFixture(t)
	for _, id := range []string{"b", "a"} {
		if _, err := fx.f.NewRaiseProposal(fx.ctx, issuer, id); err != nil {
			t.Fatalf("NewRaiseProposal: %v", err)
		}
	}
	if _, err := fx.f.OperatorProposal(fx.ctx, operator, "a", true, params()); err != nil {
		t.Fatalf("accept: %v", err)
	}

	snap := fx.f.Snapshot()
	if len(snap.Records) != 2 || snap.Records[0].ID != "a" {
		t.Fatalf("records = %+v", snap.Records)
	}
	restored, err := Restore(snap, fx.f.deps)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if !restored.ImplementationExists("a") || restored.Issuer("b") != issuer || restored.ProxyAdmin() != proxyAdmin {
		t.Fatal("restored factory differs")
	}

	snap.Records = append(snap.Records, snap.Records[0])
	if _, err := Restore(snap, fx.f.deps); err == nil {
		t.Fatal("expected duplicate record to fail")
	}
}
