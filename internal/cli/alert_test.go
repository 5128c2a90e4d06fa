package cli

import (
	"testing"
)

func TestAlertRemoveRequiresIndex(t *testing.T) {
	if err := alertRemoveCmd.ValidateRequiredFlags(); err == nil {
		t.Fatal("alert remove without --index should fail flag validation")
	}

	if err := alertRemoveCmd.Flags().Set("index", "2"); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	if err := alertRemoveCmd.ValidateRequiredFlags(); err != nil {
		t.Fatalf("alert remove with --index should pass validation: %v", err)
	}
}
