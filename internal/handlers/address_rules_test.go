package handlers

import (
	"testing"

	"shopapi/internal/models"
)

func TestDefaultForNewAddressFirstAddress(t *testing.T) {
	if !defaultForNewAddress(nil, 0) {
		t.Fatal("expected first address to become default when isDefault is omitted")
	}
	if defaultForNewAddress(nil, 2) {
		t.Fatal("expected later address to not become default when isDefault is omitted")
	}
}

func TestDefaultForNewAddressExplicitWins(t *testing.T) {
	no := false
	yes := true
	if defaultForNewAddress(&no, 0) {
		t.Fatal("expected explicit isDefault=false to win over first-address rule")
	}
	if !defaultForNewAddress(&yes, 5) {
		t.Fatal("expected explicit isDefault=true to win")
	}
}

func TestValidateAddressCreateTrimsFields(t *testing.T) {
	req := addressCreateRequest{
		Recipient:     "  Nguyen Van A  ",
		PhoneNumber:   "0901234567",
		Province:      "Ho Chi Minh",
		District:      "District 1",
		Ward:          "Ben Nghe",
		StreetAddress: " 12 Le Loi ",
	}
	if err := validateAddressCreate(&req); err != nil {
		t.Fatalf("validateAddressCreate returned error: %v", err)
	}
	if req.Recipient != "Nguyen Van A" || req.StreetAddress != "12 Le Loi" {
		t.Fatalf("expected trimmed fields, got %+v", req)
	}
}

func TestValidateAddressCreateRejectsBlankField(t *testing.T) {
	req := addressCreateRequest{
		Recipient:     "Nguyen Van A",
		PhoneNumber:   "0901234567",
		Province:      "   ",
		District:      "District 1",
		Ward:          "Ben Nghe",
		StreetAddress: "12 Le Loi",
	}
	if err := validateAddressCreate(&req); err == nil {
		t.Fatal("expected validation error for whitespace-only province")
	}
}

func TestApplyAddressUpdateKeepsAbsentFields(t *testing.T) {
	stored := models.Address{
		Recipient:   "Nguyen Van A",
		PhoneNumber: "0901234567",
		Province:    "Ho Chi Minh",
	}
	phone := "0912345678"

	updated, promoted, demoted := applyAddressUpdate(stored, addressUpdateInput{PhoneNumber: &phone})
	if updated.PhoneNumber != phone {
		t.Fatalf("expected phone to be overwritten, got %q", updated.PhoneNumber)
	}
	if updated.Recipient != stored.Recipient || updated.Province != stored.Province {
		t.Fatalf("expected absent fields to keep stored values, got %+v", updated)
	}
	if promoted || demoted {
		t.Fatal("expected no default transition without isDefault in the input")
	}
}

func TestApplyAddressUpdateStoresPresentEmptyString(t *testing.T) {
	stored := models.Address{Recipient: "Nguyen Van A"}
	empty := ""

	updated, _, _ := applyAddressUpdate(stored, addressUpdateInput{Recipient: &empty})
	if updated.Recipient != "" {
		t.Fatalf("expected present empty string to be stored, got %q", updated.Recipient)
	}
}

func TestApplyAddressUpdateReportsPromotion(t *testing.T) {
	yes := true

	_, promoted, _ := applyAddressUpdate(models.Address{IsDefault: false}, addressUpdateInput{IsDefault: &yes})
	if !promoted {
		t.Fatal("expected promotion to default to be reported")
	}

	_, promoted, _ = applyAddressUpdate(models.Address{IsDefault: true}, addressUpdateInput{IsDefault: &yes})
	if promoted {
		t.Fatal("expected no promotion when the address is already default")
	}
}

// Demoting the current default must be reported so the handler can hand the
// flag to a sibling; silently accepting it would leave the user with
// addresses but no default.
func TestApplyAddressUpdateReportsDemotion(t *testing.T) {
	no := false

	_, _, demoted := applyAddressUpdate(models.Address{IsDefault: true}, addressUpdateInput{IsDefault: &no})
	if !demoted {
		t.Fatal("expected demotion of the current default to be reported")
	}

	_, _, demoted = applyAddressUpdate(models.Address{IsDefault: false}, addressUpdateInput{IsDefault: &no})
	if demoted {
		t.Fatal("expected no demotion when the address was not the default")
	}
}
