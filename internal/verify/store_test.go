package verify

import (
	"os"
	"path/filepath"
	"testing"
)

func testDirectory() *Directory {
	return NewDirectory([]User{
		{Name: "Ravi Kumar", Mobile: "9876543210", Last4: "3210", DOB: "1990-06-15"},
		{Name: "Priya Sharma", Mobile: "9123456780", Last4: "6780", DOB: "1985-11-02"},
	})
}

func TestDirectory_Match_Last4(t *testing.T) {
	d := testDirectory()

	user, ok := d.Match("9876543210", "3210", "")
	if !ok {
		t.Fatal("Expected match on mobile plus last4")
	}
	if user.Name != "Ravi Kumar" {
		t.Errorf("Expected Ravi Kumar, got %s", user.Name)
	}
}

func TestDirectory_Match_DOB(t *testing.T) {
	d := testDirectory()

	// Wrong last4 but correct DOB still verifies; either factor suffices.
	user, ok := d.Match("9123456780", "0000", "1985-11-02")
	if !ok {
		t.Fatal("Expected match on mobile plus DOB")
	}
	if user.Name != "Priya Sharma" {
		t.Errorf("Expected Priya Sharma, got %s", user.Name)
	}
}

func TestDirectory_Match_Failures(t *testing.T) {
	d := testDirectory()

	if _, ok := d.Match("9999999999", "3210", "1990-06-15"); ok {
		t.Error("Expected no match for unknown mobile")
	}
	if _, ok := d.Match("9876543210", "0000", "2000-01-01"); ok {
		t.Error("Expected no match when both secondary factors are wrong")
	}
	if _, ok := d.Match("9876543210", "", ""); ok {
		t.Error("Expected no match with no secondary factor at all")
	}
}

func TestLoadDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	content := `[{"name":"Test User","mobile":"9000000001","last4":"0001","dob":"1999-01-01"}]`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	d, err := LoadDirectory(path)
	if err != nil {
		t.Fatalf("LoadDirectory failed: %v", err)
	}
	if d.Len() != 1 {
		t.Fatalf("Expected 1 user, got %d", d.Len())
	}
	if _, ok := d.Match("9000000001", "0001", ""); !ok {
		t.Error("Expected loaded user to match")
	}
}

func TestLoadDirectory_MissingFile(t *testing.T) {
	if _, err := LoadDirectory(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestSession_Reset(t *testing.T) {
	s := Session{PendingMobile: "9876543210", Attempts: 2}
	s.Reset()
	if s.PendingMobile != "" || s.Attempts != 0 {
		t.Errorf("Expected clean session after reset, got %+v", s)
	}
}
