package service

import (
	"bytes"
	"context"
	"html/template"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/exeat-service/internal/domain"
	apperrors "github.com/spec-kit/exeat-service/pkg/util/errorutil"
)

// PassService renders the printable gate pass for an approved request.
type PassService struct {
	requests *RequestService
}

// NewPassService builds the service.
func NewPassService(requests *RequestService) *PassService {
	return &PassService{requests: requests}
}

type passData struct {
	Serial        string
	StudentName   string
	StudentCode   string
	Class         string
	House         string
	DepartureDate string
	DepartureTime string
	Duration      string
	Destination   string
	GuardianName  string
	GuardianPhone string
	ApprovedBy    string
	ApprovedAt    string
	IssuedAt      string
}

// Render returns the pass as a standalone HTML page. Only approved requests
// have a pass; role scoping matches the request detail endpoint. The serial
// is generated per render and printed on the pass for gate-side reference.
func (s *PassService) Render(ctx context.Context, caller *domain.User, requestID string) ([]byte, error) {
	req, _, err := s.requests.Get(ctx, caller, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != domain.RequestStatusApproved {
		return nil, apperrors.NewValidationError("pass is only available for approved requests", nil)
	}

	data := passData{
		Serial:        strings.ToUpper(uuid.NewString()[:8]),
		StudentName:   req.StudentName,
		StudentCode:   req.StudentCode,
		Class:         req.StudentClass,
		House:         req.HouseName,
		DepartureDate: req.DepartureDate.Format("Monday, 2 January 2006"),
		DepartureTime: req.DepartureTime,
		Duration:      req.Duration,
		Destination:   req.Destination,
		GuardianName:  req.GuardianName,
		GuardianPhone: req.GuardianPhone,
		IssuedAt:      time.Now().Format("2 Jan 2006 15:04"),
	}
	if req.ApprovedByName != nil {
		data.ApprovedBy = *req.ApprovedByName
	}
	if req.ApprovedAt != nil {
		data.ApprovedAt = req.ApprovedAt.Format("2 Jan 2006 15:04")
	}

	var buf bytes.Buffer
	if err := passTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var passTemplate = template.Must(template.New("pass").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Exeat Pass {{.Serial}}</title>
<style>
  body { font-family: Georgia, serif; max-width: 640px; margin: 40px auto; color: #1a1a1a; }
  .pass { border: 3px double #1a1a1a; padding: 32px; }
  h1 { text-align: center; font-size: 22px; letter-spacing: 2px; margin: 0 0 4px; }
  .serial { text-align: center; font-family: monospace; color: #555; margin-bottom: 24px; }
  table { width: 100%; border-collapse: collapse; }
  td { padding: 6px 4px; vertical-align: top; }
  td.label { width: 35%; color: #555; }
  .approval { margin-top: 28px; padding-top: 12px; border-top: 1px solid #999; font-size: 14px; }
  .footer { margin-top: 16px; font-size: 12px; color: #777; text-align: center; }
  @media print { body { margin: 0; } }
</style>
</head>
<body>
<div class="pass">
  <h1>EXEAT PASS</h1>
  <div class="serial">No. {{.Serial}}</div>
  <table>
    <tr><td class="label">Student</td><td>{{.StudentName}} ({{.StudentCode}})</td></tr>
    <tr><td class="label">Class</td><td>{{.Class}}</td></tr>
    <tr><td class="label">House</td><td>{{.House}}</td></tr>
    <tr><td class="label">Departure</td><td>{{.DepartureDate}}{{if .DepartureTime}} at {{.DepartureTime}}{{end}}</td></tr>
    <tr><td class="label">Duration</td><td>{{.Duration}}</td></tr>
    <tr><td class="label">Destination</td><td>{{.Destination}}</td></tr>
    {{if .GuardianName}}<tr><td class="label">Guardian</td><td>{{.GuardianName}}{{if .GuardianPhone}} ({{.GuardianPhone}}){{end}}</td></tr>{{end}}
  </table>
  <div class="approval">
    Approved by <strong>{{.ApprovedBy}}</strong>{{if .ApprovedAt}} on {{.ApprovedAt}}{{end}}.
  </div>
  <div class="footer">Issued {{.IssuedAt}}. This pass must be presented at the gate on departure and return.</div>
</div>
</body>
</html>
`))
