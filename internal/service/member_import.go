package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/mail"
	"strings"

	"gorm.io/gorm"

	"churchsite/internal/model"
	"churchsite/internal/repository"
)

// MemberRecord is one member in an import file.
type MemberRecord struct {
	FullName string     `json:"full_name"`
	Email    string     `json:"email"`
	Phone    string     `json:"phone,omitempty"`
	Active   *bool      `json:"is_active,omitempty"`
	Role     model.Role `json:"role,omitempty"`
}

// ImportResult counts what an import did.
type ImportResult struct {
	Created int
	Updated int
	Skipped []string
}

// DecodeMemberRecords reads a JSON array of member records.
func DecodeMemberRecords(r io.Reader) ([]MemberRecord, error) {
	var records []MemberRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("parse member records: %w", err)
	}
	return records, nil
}

// FetchMemberRecords downloads a JSON array of member records.
func FetchMemberRecords(ctx context.Context, client *http.Client, url string) ([]MemberRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch member records: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch member records: status %d", resp.StatusCode)
	}
	return DecodeMemberRecords(resp.Body)
}

// ImportMembers creates new members and updates existing ones, matched by
// normalized email. Invalid records are skipped, not fatal.
func ImportMembers(ctx context.Context, repo repository.MemberRepository, records []MemberRecord) (ImportResult, error) {
	var res ImportResult
	for _, rec := range records {
		email := model.NormalizeEmail(rec.Email)
		name := strings.TrimSpace(rec.FullName)
		if _, err := mail.ParseAddress(email); err != nil || name == "" {
			res.Skipped = append(res.Skipped, rec.Email)
			continue
		}
		role := rec.Role
		if role == "" {
			role = model.RoleMember
		}
		if role != model.RoleMember && role != model.RolePastor {
			res.Skipped = append(res.Skipped, rec.Email)
			continue
		}
		active := rec.Active == nil || *rec.Active
		var phone *string
		if p := strings.TrimSpace(rec.Phone); p != "" {
			phone = &p
		}

		existing, err := repo.FindByEmail(ctx, email)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return res, fmt.Errorf("check member %s: %w", email, err)
		}

		if existing != nil {
			existing.FullName = name
			existing.Phone = phone
			existing.IsActive = active
			existing.Role = role
			if err := repo.Update(ctx, existing); err != nil {
				return res, fmt.Errorf("update member %s: %w", email, err)
			}
			res.Updated++
			continue
		}

		member := &model.Member{FullName: name, Email: email, Phone: phone, IsActive: active, Role: role}
		if err := repo.Create(ctx, member); err != nil {
			return res, fmt.Errorf("create member %s: %w", email, err)
		}
		res.Created++
	}
	return res, nil
}
