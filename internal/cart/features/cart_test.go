package features

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"orderup/internal/cart"
	"orderup/internal/domain"

	"github.com/cucumber/godog"
)

type cartTestContext struct {
	store *cart.Store
	err   error
}

func (c *cartTestContext) reset() {
	c.store = nil
	c.err = nil
}

func (c *cartTestContext) aCartWithAFlatFeeOf(fee int) error {
	c.store = cart.NewStore(cart.FlatFee{Amount: domain.Money(fee)}, "KES")
	return nil
}

func (c *cartTestContext) iAddOfPriced(quantity int, name string, price int) error {
	c.err = c.store.AddItem(domain.MenuItem{ID: name, Name: name, Price: domain.Money(price)}, quantity)
	return nil
}

func (c *cartTestContext) iSetTheQuantityOfTo(name string, quantity int) error {
	c.err = c.store.UpdateQuantity(name, quantity)
	return nil
}

func (c *cartTestContext) iRemove(name string) error {
	c.store.RemoveItem(name)
	return nil
}

func (c *cartTestContext) iClearTheCart() error {
	c.store.Clear()
	return nil
}

func (c *cartTestContext) theSubtotalIs(want int) error {
	if got := c.store.Subtotal(); got != domain.Money(want) {
		return fmt.Errorf("expected subtotal %d, got %d", want, got)
	}
	return nil
}

func (c *cartTestContext) theTotalIs(want int) error {
	if got := c.store.Total(); got != domain.Money(want) {
		return fmt.Errorf("expected total %d, got %d", want, got)
	}
	return nil
}

func (c *cartTestContext) theCartHasLinesAndItems(lines, items int) error {
	if got := c.store.LineCount(); got != lines {
		return fmt.Errorf("expected %d lines, got %d", lines, got)
	}
	if got := c.store.TotalItemCount(); got != items {
		return fmt.Errorf("expected %d items, got %d", items, got)
	}
	return nil
}

func (c *cartTestContext) theLineHasQuantity(name string, quantity int) error {
	for _, l := range c.store.Lines() {
		if l.Item.ID == name {
			if l.Quantity != quantity {
				return fmt.Errorf("expected %s quantity %d, got %d", name, quantity, l.Quantity)
			}
			return nil
		}
	}
	return fmt.Errorf("line %s not found", name)
}

func (c *cartTestContext) theLastOperationFailedWithAnInvalidQuantity() error {
	if !errors.Is(c.err, cart.ErrInvalidQuantity) {
		return fmt.Errorf("expected invalid quantity error, got %v", c.err)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &cartTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	ctx.Step(`^a cart with a flat fee of (\d+)$`, tc.aCartWithAFlatFeeOf)
	ctx.Step(`^I add (-?\d+) of "([^"]*)" priced (\d+)$`, tc.iAddOfPriced)
	ctx.Step(`^I set the quantity of "([^"]*)" to (-?\d+)$`, tc.iSetTheQuantityOfTo)
	ctx.Step(`^I remove "([^"]*)"$`, tc.iRemove)
	ctx.Step(`^I clear the cart$`, tc.iClearTheCart)

	ctx.Step(`^the subtotal is (\d+)$`, tc.theSubtotalIs)
	ctx.Step(`^the total is (\d+)$`, tc.theTotalIs)
	ctx.Step(`^the cart has (\d+) lines and (\d+) items$`, tc.theCartHasLinesAndItems)
	ctx.Step(`^the line "([^"]*)" has quantity (\d+)$`, tc.theLineHasQuantity)
	ctx.Step(`^the last operation failed with an invalid quantity$`, tc.theLastOperationFailedWithAnInvalidQuantity)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"cart.feature"},
			TestingT: t,
			Strict:   true,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
