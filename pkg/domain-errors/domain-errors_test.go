package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

type DomainErrorsSuite struct {
	suite.Suite
}

func TestDomainErrorsSuite(t *testing.T) {
	suite.Run(t, new(DomainErrorsSuite))
}

func (s *DomainErrorsSuite) TestErrorString() {
	s.Run("message wins over code", func() {
		err := &Error{Code: CodeUnknownCollection, Message: "collection nope-kyc is not offered"}
		s.Equal("collection nope-kyc is not offered", err.Error())
	})

	s.Run("falls back to code", func() {
		err := &Error{Code: CodeWalletRequired}
		s.Equal("wallet_required", err.Error())
	})
}

func (s *DomainErrorsSuite) TestIsMatchesByCode() {
	a := New(CodeMintFailed, "nonce too low")
	b := New(CodeMintFailed, "insufficient funds")
	s.ErrorIs(a, b)
	s.NotErrorIs(a, New(CodeInternal, "nonce too low"))
	s.False(errors.Is(a, errors.New("nonce too low")))
}

func (s *DomainErrorsSuite) TestWrap() {
	s.Run("keeps original domain code", func() {
		inner := New(CodeUnknownProvider, "no config for provider")
		wrapped := Wrap(fmt.Errorf("fetch: %w", inner), CodeInternal, "verification could not start")
		s.True(HasCode(wrapped, CodeUnknownProvider))
		s.Equal("verification could not start", wrapped.Error())
	})

	s.Run("applies code to plain errors", func() {
		root := errors.New("dial tcp: connection refused")
		wrapped := Wrap(root, CodeUnavailable, "chain node unreachable")
		s.True(HasCode(wrapped, CodeUnavailable))
		s.ErrorIs(wrapped, root)
	})
}

func (s *DomainErrorsSuite) TestHasCode() {
	s.False(HasCode(nil, CodeInternal))
	s.False(HasCode(errors.New("plain"), CodeInternal))
	s.True(HasCode(fmt.Errorf("ctx: %w", New(CodeTimeout, "slow")), CodeTimeout))
}
