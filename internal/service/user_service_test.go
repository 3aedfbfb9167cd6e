package service

import "testing"

func TestIsAcademicEmail(t *testing.T) {
	cases := []struct {
		email string
		ok    bool
	}{
		{"alice@bristol.ac.uk", true},
		{"bob.smith@cs.ucl.ac.uk", true},
		{"carol@gmail.com", false},
		{"dave@ac.uk", false},     // 缺少学校域
		{"eve@uni.ac.ukx", false}, // 后缀必须收尾
		{"no-at-sign.ac.uk", false},
	}
	for _, tc := range cases {
		if got := isAcademicEmail(tc.email); got != tc.ok {
			t.Fatalf("isAcademicEmail(%q) = %v, want %v", tc.email, got, tc.ok)
		}
	}
}

func TestRegisterRejectsNonAcademicEmail(t *testing.T) {
	// 邮箱校验在任何存储访问之前，零值 service 足够触发
	svc := &UserService{}
	if _, err := svc.Register("Ada", "Lovelace", "ada@gmail.com", "password123", "123456"); err == nil {
		t.Fatal("expected non-academic email to be rejected")
	}
}
