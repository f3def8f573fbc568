package session

import (
	"path/filepath"
	"testing"
	"time"

	"textdrive/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "textdrive.db"))
	if err != nil {
		t.Fatalf("Failed to open test store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNavStateUnknownIdentityIsInitial(t *testing.T) {
	store := newTestStore(t)

	state, err := store.NavState("+15550001111")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if !state.AtRoot() || state.SelectedAccount != "" {
		t.Errorf("Expected the initial state, got %+v", state)
	}
	if len(state.ParentStack) != 0 || len(state.LastChoices) != 0 {
		t.Error("Expected empty stack and choices for an unknown identity")
	}
}

func TestNavStateRoundTrip(t *testing.T) {
	store := newTestStore(t)

	saved := &models.NavState{
		Location:        "reports/",
		SelectedAccount: "drive-2",
		ParentStack:     []string{models.LocationRoot, models.AccountRoot},
		LastChoices: []models.Choice{
			{Kind: models.KindFolder, ID: "reports/", Label: "reports"},
			{Kind: models.KindFile, ID: "report.pdf", Label: "report.pdf"},
		},
	}
	if err := store.SaveNavState("+15550001111", saved); err != nil {
		t.Fatalf("Failed to save state: %v", err)
	}

	loaded, err := store.NavState("+15550001111")
	if err != nil {
		t.Fatalf("Failed to load state: %v", err)
	}

	if loaded.Location != saved.Location || loaded.SelectedAccount != saved.SelectedAccount {
		t.Errorf("Expected %+v, got %+v", saved, loaded)
	}
	if len(loaded.ParentStack) != 2 || loaded.ParentStack[1] != models.AccountRoot {
		t.Errorf("Expected parent stack preserved, got %v", loaded.ParentStack)
	}
	if len(loaded.LastChoices) != 2 || loaded.LastChoices[1].Kind != models.KindFile {
		t.Errorf("Expected choice list preserved, got %v", loaded.LastChoices)
	}
}

func TestSaveNavStateOverwrites(t *testing.T) {
	store := newTestStore(t)

	first := &models.NavState{Location: "a/", SelectedAccount: "acct", ParentStack: []string{""}}
	if err := store.SaveNavState("+15550001111", first); err != nil {
		t.Fatalf("Failed to save state: %v", err)
	}

	var second models.NavState
	second.Reset()
	if err := store.SaveNavState("+15550001111", &second); err != nil {
		t.Fatalf("Failed to overwrite state: %v", err)
	}

	loaded, err := store.NavState("+15550001111")
	if err != nil {
		t.Fatalf("Failed to load state: %v", err)
	}
	if !loaded.AtRoot() || loaded.SelectedAccount != "" {
		t.Errorf("Expected the reset state to win, got %+v", loaded)
	}
}

func TestLinkAndListAccounts(t *testing.T) {
	store := newTestStore(t)

	accounts := []models.StorageAccount{
		{ID: "s3-1", Identity: "+15550001111", Service: "S3", Label: "work", Bucket: "work-bucket"},
		{ID: "s3-2", Identity: "+15550001111", Service: "S3", Label: "home", Bucket: "home-bucket", Prefix: "me/"},
		{ID: "s3-3", Identity: "+15559998888", Service: "S3", Label: "other", Bucket: "other-bucket"},
	}
	for _, a := range accounts {
		if err := store.LinkAccount(a); err != nil {
			t.Fatalf("Failed to link %s: %v", a.ID, err)
		}
	}

	mine, err := store.AccountsFor("+15550001111")
	if err != nil {
		t.Fatalf("Failed to list accounts: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("Expected 2 accounts, got %d", len(mine))
	}
	if mine[0].ID != "s3-1" || mine[1].ID != "s3-2" {
		t.Errorf("Expected accounts in link order, got %s then %s", mine[0].ID, mine[1].ID)
	}

	got, err := store.Account("s3-2")
	if err != nil {
		t.Fatalf("Failed to load account: %v", err)
	}
	if got.Bucket != "home-bucket" || got.Prefix != "me/" {
		t.Errorf("Expected bucket/prefix preserved, got %+v", got)
	}
}

func TestAccountDoesNotExist(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.Account("missing"); err == nil {
		t.Error("Expected an error for a missing account")
	}
}

func TestLinkAccountValidation(t *testing.T) {
	store := newTestStore(t)

	if err := store.LinkAccount(models.StorageAccount{ID: "x", Identity: "+1555"}); err == nil {
		t.Error("Expected an error for an account without a bucket")
	}
}

func TestUnlinkAccounts(t *testing.T) {
	store := newTestStore(t)

	_ = store.LinkAccount(models.StorageAccount{ID: "s3-1", Identity: "+15550001111", Service: "S3", Label: "a", Bucket: "b"})
	_ = store.LinkAccount(models.StorageAccount{ID: "s3-2", Identity: "+15559998888", Service: "S3", Label: "c", Bucket: "d"})

	if err := store.UnlinkAccounts("+15550001111"); err != nil {
		t.Fatalf("Failed to unlink: %v", err)
	}

	mine, _ := store.AccountsFor("+15550001111")
	if len(mine) != 0 {
		t.Errorf("Expected no accounts left, got %d", len(mine))
	}
	theirs, _ := store.AccountsFor("+15559998888")
	if len(theirs) != 1 {
		t.Errorf("Expected the other identity untouched, got %d accounts", len(theirs))
	}
}

func TestVerificationCodeLifecycle(t *testing.T) {
	store := newTestStore(t)
	now := time.Now()

	if err := store.PutVerification("+15550001111", "ABC123XYZ0", now.Add(10*time.Minute)); err != nil {
		t.Fatalf("Failed to store code: %v", err)
	}

	ok, err := store.CheckVerification("+15550001111", "WRONG00000", now)
	if err != nil || ok {
		t.Errorf("Expected wrong code to be rejected, got ok=%v err=%v", ok, err)
	}

	ok, err = store.CheckVerification("+15550001111", "ABC123XYZ0", now)
	if err != nil || !ok {
		t.Fatalf("Expected valid code to be accepted, got ok=%v err=%v", ok, err)
	}

	// A code is single use.
	ok, _ = store.CheckVerification("+15550001111", "ABC123XYZ0", now)
	if ok {
		t.Error("Expected consumed code to be rejected")
	}
}

func TestVerificationCodeExpiry(t *testing.T) {
	store := newTestStore(t)
	now := time.Now()

	if err := store.PutVerification("+15550001111", "ABC123XYZ0", now.Add(-time.Minute)); err != nil {
		t.Fatalf("Failed to store code: %v", err)
	}

	ok, err := store.CheckVerification("+15550001111", "ABC123XYZ0", now)
	if err != nil || ok {
		t.Errorf("Expected expired code to be rejected, got ok=%v err=%v", ok, err)
	}
}

func TestPutVerificationReplacesCode(t *testing.T) {
	store := newTestStore(t)
	now := time.Now()

	_ = store.PutVerification("+15550001111", "FIRST00000", now.Add(10*time.Minute))
	_ = store.PutVerification("+15550001111", "SECOND0000", now.Add(10*time.Minute))

	ok, _ := store.CheckVerification("+15550001111", "FIRST00000", now)
	if ok {
		t.Error("Expected the replaced code to be invalid")
	}
	ok, _ = store.CheckVerification("+15550001111", "SECOND0000", now)
	if !ok {
		t.Error("Expected the newest code to be valid")
	}
}
