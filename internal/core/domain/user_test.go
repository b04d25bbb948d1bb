package domain

import "testing"

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Alice@Example.COM "); got != "alice@example.com" {
		t.Fatalf("unexpected normalized email %q", got)
	}
}

func TestParseUserOrder(t *testing.T) {
	cases := []struct {
		in     string
		want   UserOrder
		wantOK bool
	}{
		{"", DefaultUserOrder, true},
		{"username", OrderUsernameAsc, true},
		{"-id", OrderIDDesc, true},
		{"date_joined", OrderDateJoinedAsc, true},
		{"password", "", false},
		{"-email; DROP TABLE users", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseUserOrder(tc.in)
		if got != tc.want || ok != tc.wantOK {
			t.Fatalf("ParseUserOrder(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestUserOrderField(t *testing.T) {
	field, desc := OrderDateJoinedDesc.Field()
	if field != "date_joined" || !desc {
		t.Fatalf("unexpected field %q desc=%v", field, desc)
	}
	field, desc = OrderUsernameAsc.Field()
	if field != "username" || desc {
		t.Fatalf("unexpected field %q desc=%v", field, desc)
	}
}

func TestValidationError(t *testing.T) {
	ve := NewValidationError()
	if !ve.Empty() {
		t.Fatal("new error should be empty")
	}
	ve.Add("username", MsgUsernameExists)
	ve.Add("email", MsgEmailExists)
	ve.Add("email", MsgInvalidEmail)

	if ve.Empty() || !ve.Has("email") || ve.Has("password") {
		t.Fatalf("unexpected field state: %+v", ve.Fields)
	}
	want := "validation failed: email: " + MsgEmailExists + " " + MsgInvalidEmail + "; username: " + MsgUsernameExists
	if ve.Error() != want {
		t.Fatalf("unexpected message:\n got %q\nwant %q", ve.Error(), want)
	}

	var nilErr *ValidationError
	if !nilErr.Empty() || nilErr.Has("email") {
		t.Fatal("nil error must report empty")
	}
}
