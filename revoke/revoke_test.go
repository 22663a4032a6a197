package revoke

import (
	"context"
	"errors"
	"testing"

	"github.com/tokenward/bearer-go/bearertest"
	"github.com/tokenward/bearer-go/ticket"
)

func newInner() *bearertest.Decoder {
	return bearertest.NewDecoder().
		Add("tok-a", &ticket.Ticket{
			Identity: ticket.Identity{}.
				Add(ticket.ClaimSubject, "user-a").
				Add(ticket.ClaimTokenID, "jti-a"),
		}).
		Add("tok-no-id", &ticket.Ticket{
			Identity: ticket.Identity{}.Add(ticket.ClaimSubject, "user-b"),
		})
}

func TestWrapValidation(t *testing.T) {
	if _, err := Wrap(nil, NewMemoryList()); err == nil {
		t.Fatal("expected error for nil inner decoder")
	}
	if _, err := Wrap(newInner(), nil); err == nil {
		t.Fatal("expected error for nil list")
	}
}

func TestUnrevokedPassesThrough(t *testing.T) {
	d, err := Wrap(newInner(), NewMemoryList())
	if err != nil {
		t.Fatalf("wrap: %v", err)
	}
	tk, err := d.Unprotect(context.Background(), "tok-a")
	if err != nil {
		t.Fatalf("unprotect: %v", err)
	}
	if got := tk.Identity.First(ticket.ClaimSubject); got != "user-a" {
		t.Fatalf("sub = %q", got)
	}
}

func TestRevokedTokenFailsDecode(t *testing.T) {
	list := NewMemoryList()
	list.Revoke("jti-a")
	d, err := Wrap(newInner(), list)
	if err != nil {
		t.Fatalf("wrap: %v", err)
	}
	if _, err := d.Unprotect(context.Background(), "tok-a"); err == nil {
		t.Fatal("revoked token must fail to decode")
	}
}

func TestTicketWithoutIDSkipsCheck(t *testing.T) {
	list := NewMemoryList()
	list.Revoke("") // pathological entry must not match the absent claim
	d, err := Wrap(newInner(), list)
	if err != nil {
		t.Fatalf("wrap: %v", err)
	}
	if _, err := d.Unprotect(context.Background(), "tok-no-id"); err != nil {
		t.Fatalf("unprotect: %v", err)
	}
}

func TestCustomIDClaim(t *testing.T) {
	inner := bearertest.NewDecoder().Add("tok-c", &ticket.Ticket{
		Identity: ticket.Identity{}.
			Add(ticket.ClaimSubject, "user-c").
			Add("token_id", "custom-1"),
	})
	list := NewMemoryList()
	list.Revoke("custom-1")
	d, err := Wrap(inner, list, WithIDClaim("token_id"))
	if err != nil {
		t.Fatalf("wrap: %v", err)
	}
	if _, err := d.Unprotect(context.Background(), "tok-c"); err == nil {
		t.Fatal("revoked token must fail to decode")
	}
}

type failingList struct{}

func (failingList) Revoked(ctx context.Context, id string) (bool, error) {
	return false, errors.New("list unavailable")
}

func TestListErrorFailsClosed(t *testing.T) {
	d, err := Wrap(newInner(), failingList{})
	if err != nil {
		t.Fatalf("wrap: %v", err)
	}
	if _, err := d.Unprotect(context.Background(), "tok-a"); err == nil {
		t.Fatal("unreachable list must fail the decode")
	}
}

func TestInnerFailurePropagates(t *testing.T) {
	d, err := Wrap(newInner(), NewMemoryList())
	if err != nil {
		t.Fatalf("wrap: %v", err)
	}
	if _, err := d.Unprotect(context.Background(), "unknown"); err == nil {
		t.Fatal("inner decode failure must propagate")
	}
}
