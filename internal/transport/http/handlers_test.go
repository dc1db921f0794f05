package httptransport

import (
	"context"
	"encoding/hex"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/suite"

	"h2ledger/internal/certification"
	"h2ledger/internal/credits"
	"h2ledger/internal/events"
	"h2ledger/internal/ledger"
	"h2ledger/internal/minting"
	"h2ledger/internal/roles"
	"h2ledger/pkg/domain"
	"h2ledger/pkg/testutil"
)

// HandlerSuite wires the full application against in-memory backends and
// drives it over HTTP, X-Caller carrying the asserted sender.
type HandlerSuite struct {
	suite.Suite
	router http.Handler
	ledger *credits.Ledger

	genesis  domain.Address
	country  domain.Address
	state    domain.Address
	city     domain.Address
	producer domain.Address
	buyer    domain.Address

	cityKeyHex string
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sink := events.NewPublisher(events.NewInMemoryStore(), logger, nil)
	tx := ledger.NewMemoryTx()

	roleSvc := roles.NewService(roles.NewInMemoryStore(), tx, sink, logger, nil)
	s.ledger = credits.NewLedger(
		credits.NewInMemoryStore(), credits.NewInMemoryHashLedger(),
		tx, roleSvc, sink, logger, nil, 0,
	)
	minter := minting.NewOrchestrator(
		certification.NewVerifier(roleSvc), s.ledger, roleSvc, logger, nil,
	)

	s.router = NewRouter(logger,
		NewRolesHandler(roleSvc, logger),
		NewCreditsHandler(minter, s.ledger, logger),
		NewAdminHandler(s.ledger, logger),
	)

	s.genesis = addrFromByte(1)
	s.country = addrFromByte(2)
	s.state = addrFromByte(3)
	s.buyer = addrFromByte(6)

	key, err := crypto.GenerateKey()
	s.Require().NoError(err)
	s.cityKeyHex = hex.EncodeToString(crypto.FromECDSA(key))
	s.city, err = certification.AddressOfKey(s.cityKeyHex)
	s.Require().NoError(err)

	producerKey, err := crypto.GenerateKey()
	s.Require().NoError(err)
	s.producer = domain.AddressFromBytes(crypto.PubkeyToAddress(producerKey.PublicKey).Bytes())

	s.Require().NoError(roleSvc.Bootstrap(context.Background(), s.genesis))
}

func addrFromByte(b byte) domain.Address {
	var a domain.Address
	a[domain.AddressLength-1] = b
	return a
}

func (s *HandlerSuite) post(caller domain.Address, path string, body any) *http.Request {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, path, body)
	return testutil.AsCaller(req, caller.String())
}

// buildHierarchy appoints the admin chain and the producer over HTTP.
func (s *HandlerSuite) buildHierarchy() {
	steps := []struct {
		caller domain.Address
		path   string
		body   map[string]any
	}{
		{s.genesis, "/roles/country-admin", map[string]any{"account": s.country.String(), "jurisdiction": 44}},
		{s.country, "/roles/state-admin", map[string]any{"account": s.state.String(), "jurisdiction": 440}},
		{s.state, "/roles/city-admin", map[string]any{"account": s.city.String(), "jurisdiction": 4400}},
		{s.city, "/roles/producer", map[string]any{"account": s.producer.String()}},
	}
	for _, step := range steps {
		rr := testutil.DoRequest(s.router, s.post(step.caller, step.path, step.body))
		s.Require().Equal(http.StatusNoContent, rr.Code, "step %s: %s", step.path, rr.Body.String())
	}
}

// mintBatch runs a certified mint over HTTP and returns the allocated range.
func (s *HandlerSuite) mintBatch(amount uint64, metadata string) (uint64, uint64) {
	certHash := certification.ComputeCertificationHash(s.producer, amount, metadata)
	sig, err := certification.Sign(s.producer, amount, certHash, s.cityKeyHex)
	s.Require().NoError(err)

	rr := testutil.DoRequest(s.router, s.post(s.producer, "/credits/mint", map[string]any{
		"producer":  s.producer.String(),
		"amount":    amount,
		"cert_hash": certHash.String(),
		"signature": "0x" + hex.EncodeToString(sig),
		"metadata":  metadata,
	}))
	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())

	var resp struct {
		FirstID uint64 `json:"first_id"`
		LastID  uint64 `json:"last_id"`
	}
	testutil.DecodeResponse(s.T(), rr, &resp)
	return resp.FirstID, resp.LastID
}

func (s *HandlerSuite) TestAppointmentOverHTTP() {
	s.buildHierarchy()

	s.Run("grants are readable", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/roles/"+s.city.String(), nil))
		s.Require().Equal(http.StatusOK, rr.Code)

		var resp struct {
			Grants []struct {
				Role         string `json:"role"`
				Jurisdiction uint64 `json:"jurisdiction"`
			} `json:"grants"`
		}
		testutil.DecodeResponse(s.T(), rr, &resp)
		s.Require().Len(resp.Grants, 1)
		s.Equal("city_admin", resp.Grants[0].Role)
		s.Equal(uint64(4400), resp.Grants[0].Jurisdiction)
	})

	s.Run("role membership is queryable", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/roles/"+s.producer.String()+"/producer", nil))
		s.Require().Equal(http.StatusOK, rr.Code)

		var resp map[string]bool
		testutil.DecodeResponse(s.T(), rr, &resp)
		s.True(resp["held"])
	})

	s.Run("unauthorized appointment maps to 403", func() {
		rr := testutil.DoRequest(s.router, s.post(s.buyer, "/roles/country-admin", map[string]any{
			"account": addrFromByte(99).String(), "jurisdiction": 1,
		}))
		s.Equal(http.StatusForbidden, rr.Code)
	})

	s.Run("duplicate grant maps to 409", func() {
		rr := testutil.DoRequest(s.router, s.post(s.genesis, "/roles/country-admin", map[string]any{
			"account": s.country.String(), "jurisdiction": 44,
		}))
		s.Equal(http.StatusConflict, rr.Code)
	})

	s.Run("missing caller maps to 400", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/roles/producer", map[string]any{
			"account": addrFromByte(50).String(),
		})
		rr := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusBadRequest, rr.Code)
	})

	s.Run("buyer self-registration", func() {
		rr := testutil.DoRequest(s.router, s.post(s.buyer, "/roles/buyer", nil))
		s.Equal(http.StatusNoContent, rr.Code)
	})
}

func (s *HandlerSuite) TestMintOverHTTP() {
	s.buildHierarchy()

	s.Run("certified mint allocates from 1", func() {
		first, last := s.mintBatch(25, "plant-7 2026-08")
		s.Equal(uint64(1), first)
		s.Equal(uint64(25), last)
	})

	s.Run("credit detail carries the certification", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/credits/25", nil))
		s.Require().Equal(http.StatusOK, rr.Code)

		var resp struct {
			Owner     string `json:"owner"`
			Certifier string `json:"certifier"`
			Retired   bool   `json:"retired"`
		}
		testutil.DecodeResponse(s.T(), rr, &resp)
		s.Equal(s.producer.String(), resp.Owner)
		s.Equal(s.city.String(), resp.Certifier)
		s.False(resp.Retired)
	})

	s.Run("replay maps to 409", func() {
		certHash := certification.ComputeCertificationHash(s.producer, 25, "plant-7 2026-08")
		sig, err := certification.Sign(s.producer, 25, certHash, s.cityKeyHex)
		s.Require().NoError(err)

		rr := testutil.DoRequest(s.router, s.post(s.producer, "/credits/mint", map[string]any{
			"producer":  s.producer.String(),
			"amount":    25,
			"cert_hash": certHash.String(),
			"signature": "0x" + hex.EncodeToString(sig),
			"metadata":  "plant-7 2026-08",
		}))
		s.Equal(http.StatusConflict, rr.Code)
	})

	s.Run("bad signature maps to 403", func() {
		certHash := certification.ComputeCertificationHash(s.producer, 10, "other claim")
		rr := testutil.DoRequest(s.router, s.post(s.producer, "/credits/mint", map[string]any{
			"producer":  s.producer.String(),
			"amount":    10,
			"cert_hash": certHash.String(),
			"signature": "0xdeadbeef",
			"metadata":  "other claim",
		}))
		s.Equal(http.StatusForbidden, rr.Code)
	})

	s.Run("consumed hash is queryable", func() {
		certHash := certification.ComputeCertificationHash(s.producer, 25, "plant-7 2026-08")
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/certifications/"+certHash.String(), nil))
		s.Require().Equal(http.StatusOK, rr.Code)

		var resp map[string]bool
		testutil.DecodeResponse(s.T(), rr, &resp)
		s.True(resp["consumed"])
	})
}

func (s *HandlerSuite) TestTransferAndRetireOverHTTP() {
	s.buildHierarchy()
	s.mintBatch(5, "claim")

	s.Run("transfer moves ownership", func() {
		rr := testutil.DoRequest(s.router, s.post(s.producer, "/credits/2/transfer", map[string]any{
			"to": s.buyer.String(),
		}))
		s.Require().Equal(http.StatusNoContent, rr.Code, rr.Body.String())

		rr = testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/credits/owner/"+s.buyer.String(), nil))
		s.Require().Equal(http.StatusOK, rr.Code)
		var resp struct {
			Credits []uint64 `json:"credits"`
		}
		testutil.DecodeResponse(s.T(), rr, &resp)
		s.Equal([]uint64{2}, resp.Credits)
	})

	s.Run("transfer by non-owner maps to 403", func() {
		rr := testutil.DoRequest(s.router, s.post(s.producer, "/credits/2/transfer", map[string]any{
			"to": s.producer.String(),
		}))
		s.Equal(http.StatusForbidden, rr.Code)
	})

	s.Run("retire is terminal", func() {
		rr := testutil.DoRequest(s.router, s.post(s.buyer, "/credits/2/retire", nil))
		s.Require().Equal(http.StatusNoContent, rr.Code)

		rr = testutil.DoRequest(s.router, s.post(s.buyer, "/credits/2/retire", nil))
		s.Equal(http.StatusConflict, rr.Code)

		rr = testutil.DoRequest(s.router, s.post(s.buyer, "/credits/2/transfer", map[string]any{
			"to": s.producer.String(),
		}))
		s.Equal(http.StatusConflict, rr.Code)
	})

	s.Run("unknown credit maps to 404", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/credits/99", nil))
		s.Equal(http.StatusNotFound, rr.Code)
	})

	s.Run("invalid credit id maps to 400", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/credits/0", nil))
		s.Equal(http.StatusBadRequest, rr.Code)
	})
}

func (s *HandlerSuite) TestPauseOverHTTP() {
	s.buildHierarchy()
	s.mintBatch(2, "claim")

	s.Run("non-admin pause maps to 403", func() {
		rr := testutil.DoRequest(s.router, s.post(s.buyer, "/admin/pause", nil))
		s.Equal(http.StatusForbidden, rr.Code)
	})

	s.Run("paused ledger rejects state changes with 503", func() {
		rr := testutil.DoRequest(s.router, s.post(s.genesis, "/admin/pause", nil))
		s.Require().Equal(http.StatusNoContent, rr.Code)

		rr = testutil.DoRequest(s.router, s.post(s.producer, "/credits/1/transfer", map[string]any{
			"to": s.buyer.String(),
		}))
		s.Equal(http.StatusServiceUnavailable, rr.Code)

		rr = testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/admin/paused", nil))
		s.Require().Equal(http.StatusOK, rr.Code)
		var resp map[string]bool
		testutil.DecodeResponse(s.T(), rr, &resp)
		s.True(resp["paused"])
	})

	s.Run("unpause restores operation", func() {
		rr := testutil.DoRequest(s.router, s.post(s.genesis, "/admin/unpause", nil))
		s.Require().Equal(http.StatusNoContent, rr.Code)

		rr = testutil.DoRequest(s.router, s.post(s.producer, "/credits/1/transfer", map[string]any{
			"to": s.buyer.String(),
		}))
		s.Equal(http.StatusNoContent, rr.Code)
	})
}

func (s *HandlerSuite) TestHealthz() {
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/healthz", nil))
	s.Equal(http.StatusOK, rr.Code)
}
