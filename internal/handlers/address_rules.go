package handlers

import (
	"fmt"
	"strings"

	"shopapi/internal/models"
)

type addressCreateRequest struct {
	Recipient     string `json:"recipient" binding:"required"`
	PhoneNumber   string `json:"phoneNumber" binding:"required"`
	Province      string `json:"province" binding:"required"`
	District      string `json:"district" binding:"required"`
	Ward          string `json:"ward" binding:"required"`
	StreetAddress string `json:"streetAddress" binding:"required"`
	IsDefault     *bool  `json:"isDefault"`
}

// addressUpdateInput tags every field present-or-absent. A present empty
// string is stored as-is; only absent fields keep the stored value.
type addressUpdateInput struct {
	Recipient     *string `json:"recipient"`
	PhoneNumber   *string `json:"phoneNumber"`
	Province      *string `json:"province"`
	District      *string `json:"district"`
	Ward          *string `json:"ward"`
	StreetAddress *string `json:"streetAddress"`
	IsDefault     *bool   `json:"isDefault"`
}

// validateAddressCreate trims every required field in place and rejects
// fields that are empty after trimming.
func validateAddressCreate(req *addressCreateRequest) error {
	fields := []struct {
		name  string
		value *string
	}{
		{"recipient", &req.Recipient},
		{"phoneNumber", &req.PhoneNumber},
		{"province", &req.Province},
		{"district", &req.District},
		{"ward", &req.Ward},
		{"streetAddress", &req.StreetAddress},
	}
	for _, field := range fields {
		*field.value = strings.TrimSpace(*field.value)
		if *field.value == "" {
			return fmt.Errorf("%s is required", field.name)
		}
	}
	return nil
}

// defaultForNewAddress computes the isDefault flag for a new address: an
// explicit value wins, otherwise the user's first address becomes the default.
func defaultForNewAddress(explicit *bool, existingCount int64) bool {
	if explicit != nil {
		return *explicit
	}
	return existingCount == 0
}

// applyAddressUpdate merges present fields into the stored address and
// reports whether the update promotes the address to default or demotes the
// current default. A demote requires the caller to hand the flag to a sibling,
// otherwise the user would be left with addresses but no default.
func applyAddressUpdate(address models.Address, input addressUpdateInput) (updated models.Address, promoted, demoted bool) {
	if input.Recipient != nil {
		address.Recipient = strings.TrimSpace(*input.Recipient)
	}
	if input.PhoneNumber != nil {
		address.PhoneNumber = strings.TrimSpace(*input.PhoneNumber)
	}
	if input.Province != nil {
		address.Province = strings.TrimSpace(*input.Province)
	}
	if input.District != nil {
		address.District = strings.TrimSpace(*input.District)
	}
	if input.Ward != nil {
		address.Ward = strings.TrimSpace(*input.Ward)
	}
	if input.StreetAddress != nil {
		address.StreetAddress = strings.TrimSpace(*input.StreetAddress)
	}

	if input.IsDefault != nil {
		promoted = *input.IsDefault && !address.IsDefault
		demoted = !*input.IsDefault && address.IsDefault
		address.IsDefault = *input.IsDefault
	}
	return address, promoted, demoted
}
