package checkout

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"orderup/internal/cart"
	"orderup/internal/domain"

	"github.com/stretchr/testify/suite"
)

type stubGateway struct {
	calls    atomic.Int32
	entered  chan struct{}
	release  chan struct{}
	err      error
	requests []Request
	mu       sync.Mutex
}

func newStubGateway() *stubGateway {
	return &stubGateway{entered: make(chan struct{}, 8)}
}

func (g *stubGateway) SubmitOrder(_ context.Context, req Request) (*Confirmation, error) {
	g.calls.Add(1)
	g.mu.Lock()
	g.requests = append(g.requests, req)
	g.mu.Unlock()
	g.entered <- struct{}{}
	if g.release != nil {
		<-g.release
	}
	if g.err != nil {
		return nil, g.err
	}
	return &Confirmation{OrderID: "order-1", OrderNumber: "ORD-00000001", Status: domain.OrderConfirmed, Reference: req.Reference}, nil
}

func (g *stubGateway) lastRequest() Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.requests[len(g.requests)-1]
}

type FlowSuite struct {
	suite.Suite
	store   *cart.Store
	gateway *stubGateway
	flow    *Flow
}

func (s *FlowSuite) SetupTest() {
	s.store = cart.NewStore(cart.FlatFee{Amount: 150}, "KES")
	s.gateway = newStubGateway()
	s.flow = New(s.store, s.gateway, Options{Timeout: time.Second, Owner: Owner{SessionKey: "anon:1"}})
}

func (s *FlowSuite) TearDownTest() {
	if s.gateway.release != nil {
		select {
		case <-s.gateway.release:
		default:
			close(s.gateway.release)
		}
	}
}

func (s *FlowSuite) fillCart() {
	s.Require().NoError(s.store.AddItem(domain.MenuItem{ID: "burger", Name: "Burger", Price: 550}, 2))
	s.Require().NoError(s.store.AddItem(domain.MenuItem{ID: "fries", Name: "Fries", Price: 250}, 1))
}

func validForm() Form {
	return Form{Name: "Wanjiru", Phone: "0712 345 678", Email: "wanjiru@example.com"}
}

func (s *FlowSuite) TestSuccessClearsCart() {
	s.fillCart()

	conf, err := s.flow.Submit(context.Background(), validForm())

	s.Require().NoError(err)
	s.Equal("order-1", conf.OrderID)
	s.Equal(StateSucceeded, s.flow.State())
	s.True(s.store.IsEmpty())
	s.EqualValues(1, s.gateway.calls.Load())

	req := s.gateway.lastRequest()
	s.Equal(domain.Money(1500), req.Cart.Total)
	s.Equal(domain.PaymentMpesa, req.PaymentMethod)
	s.Equal(30, req.Delivery.ArrivalMinutes)
	s.Equal("anon:1", req.SessionKey)
	s.NotEmpty(req.Reference)
}

func (s *FlowSuite) TestSucceededFlowCannotBeReused() {
	s.fillCart()
	_, err := s.flow.Submit(context.Background(), validForm())
	s.Require().NoError(err)

	s.fillCart()
	_, err = s.flow.Submit(context.Background(), validForm())
	s.ErrorIs(err, ErrFlowCompleted)
	s.EqualValues(1, s.gateway.calls.Load())
}

func (s *FlowSuite) TestEmptyCartRejectedBeforeValidation() {
	_, err := s.flow.Submit(context.Background(), Form{})

	s.ErrorIs(err, ErrEmptyCart)
	s.Equal(StateIdle, s.flow.State())
	s.EqualValues(0, s.gateway.calls.Load())
}

func (s *FlowSuite) TestMissingEmailDoesNotCallGateway() {
	s.fillCart()
	form := validForm()
	form.Email = ""

	_, err := s.flow.Submit(context.Background(), form)

	var verrs ValidationErrors
	s.Require().ErrorAs(err, &verrs)
	s.Equal("Email is required", verrs["email"])
	s.Equal(StateFailed, s.flow.State())
	s.EqualValues(0, s.gateway.calls.Load())
	s.False(s.store.IsEmpty())
}

func (s *FlowSuite) TestAllFieldErrorsReported() {
	s.fillCart()

	_, err := s.flow.Submit(context.Background(), Form{Name: "   ", Email: "not-an-email", PaymentMethod: "bitcoin"})

	var verrs ValidationErrors
	s.Require().ErrorAs(err, &verrs)
	s.Equal("Name is required", verrs["name"])
	s.Equal("Phone number is required", verrs["phone"])
	s.Equal("Email is invalid", verrs["email"])
	s.Equal("Payment method is invalid", verrs["paymentMethod"])
}

func (s *FlowSuite) TestConcurrentSubmitCallsGatewayOnce() {
	s.fillCart()
	s.gateway.release = make(chan struct{})

	first := make(chan error, 1)
	go func() {
		_, err := s.flow.Submit(context.Background(), validForm())
		first <- err
	}()
	<-s.gateway.entered
	s.Equal(StateSubmitting, s.flow.State())

	_, err := s.flow.Submit(context.Background(), validForm())
	s.ErrorIs(err, ErrSubmissionInProgress)

	close(s.gateway.release)
	s.NoError(<-first)
	s.EqualValues(1, s.gateway.calls.Load())
}

func (s *FlowSuite) TestManySimultaneousSubmits() {
	s.fillCart()
	s.gateway.release = make(chan struct{})

	var wg sync.WaitGroup
	var rejected, succeeded atomic.Int32
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.flow.Submit(context.Background(), validForm())
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, ErrSubmissionInProgress), errors.Is(err, ErrFlowCompleted):
				rejected.Add(1)
			}
		}()
	}
	<-s.gateway.entered
	close(s.gateway.release)
	wg.Wait()

	s.EqualValues(1, s.gateway.calls.Load())
	s.EqualValues(1, succeeded.Load())
	s.EqualValues(9, rejected.Load())
}

func (s *FlowSuite) TestTimeoutLeavesCartIntact() {
	s.fillCart()
	s.gateway.release = make(chan struct{})
	s.flow = New(s.store, s.gateway, Options{Timeout: 50 * time.Millisecond})

	_, err := s.flow.Submit(context.Background(), validForm())

	var timeout *GatewayTimeoutError
	s.Require().ErrorAs(err, &timeout)
	s.Equal(StateFailed, s.flow.State())
	s.False(s.store.IsEmpty())
	s.Equal(3, s.store.TotalItemCount())
}

func (s *FlowSuite) TestTimeoutKeepsReferenceForRetry() {
	s.fillCart()
	s.gateway.release = make(chan struct{})
	s.flow = New(s.store, s.gateway, Options{Timeout: 50 * time.Millisecond})

	_, err := s.flow.Submit(context.Background(), validForm())
	s.Require().Error(err)
	firstRef := s.gateway.lastRequest().Reference

	close(s.gateway.release)
	conf, err := s.flow.Submit(context.Background(), validForm())
	s.Require().NoError(err)
	s.Equal(firstRef, conf.Reference)
}

func (s *FlowSuite) TestGatewayErrorAllowsRetryWithNewReference() {
	s.fillCart()
	s.gateway.err = &GatewayError{Message: "M-Pesa request was declined"}

	_, err := s.flow.Submit(context.Background(), validForm())

	var gwErr *GatewayError
	s.Require().ErrorAs(err, &gwErr)
	s.Equal("M-Pesa request was declined", gwErr.UserMessage())
	s.Equal(StateFailed, s.flow.State())
	s.False(s.store.IsEmpty())
	firstRef := s.gateway.lastRequest().Reference

	s.gateway.err = nil
	_, err = s.flow.Submit(context.Background(), validForm())
	s.Require().NoError(err)
	s.NotEqual(firstRef, s.gateway.lastRequest().Reference)
	s.True(s.store.IsEmpty())
}

func (s *FlowSuite) TestPendingGatewayErrorKeepsReference() {
	s.fillCart()
	s.gateway.err = &GatewayError{Message: "still processing", Pending: true}

	_, err := s.flow.Submit(context.Background(), validForm())
	s.Require().Error(err)
	firstRef := s.gateway.lastRequest().Reference

	s.gateway.err = nil
	conf, err := s.flow.Submit(context.Background(), validForm())
	s.Require().NoError(err)
	s.Equal(firstRef, conf.Reference)
}

func (s *FlowSuite) TestPlainGatewayErrorIsWrapped() {
	s.fillCart()
	s.gateway.err = errors.New("connection refused")

	_, err := s.flow.Submit(context.Background(), validForm())

	var gwErr *GatewayError
	s.Require().ErrorAs(err, &gwErr)
	s.Contains(err.Error(), "connection refused")
}

func (s *FlowSuite) TestCallerCancellationDoesNotAbandonSubmission() {
	s.fillCart()
	s.gateway.release = make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := s.flow.Submit(ctx, validForm())
		done <- err
	}()
	<-s.gateway.entered
	cancel()
	close(s.gateway.release)

	s.NoError(<-done)
	s.Equal(StateSucceeded, s.flow.State())
}

func (s *FlowSuite) TestSnapshotImmuneToLaterMutation() {
	s.fillCart()
	s.gateway.release = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := s.flow.Submit(context.Background(), validForm())
		done <- err
	}()
	<-s.gateway.entered
	s.Require().NoError(s.store.AddItem(domain.MenuItem{ID: "soda", Price: 100}, 5))
	close(s.gateway.release)
	s.Require().NoError(<-done)

	req := s.gateway.lastRequest()
	s.Len(req.Cart.Lines, 2)
	s.Equal(domain.Money(1350), req.Cart.Subtotal)
}

func TestFlowSuite(t *testing.T) {
	suite.Run(t, new(FlowSuite))
}
