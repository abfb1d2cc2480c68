package httpserver

import (
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/bryanwahyu/automaton-assurance/internal/application/ingest"
	"github.com/bryanwahyu/automaton-assurance/internal/application/reports"
	"github.com/bryanwahyu/automaton-assurance/internal/domain/assurance"
	"github.com/bryanwahyu/automaton-assurance/internal/domain/identity"
	domreports "github.com/bryanwahyu/automaton-assurance/internal/domain/reports"
	"github.com/bryanwahyu/automaton-assurance/internal/logging"
	"github.com/bryanwahyu/automaton-assurance/internal/middleware"
)

func actor(req *http.Request) reports.Actor {
	u := middleware.UserFromContext(req.Context())
	return reports.Actor{UserID: u.ID, OrganizationID: u.OrganizationID}
}

func reportID(req *http.Request) (domreports.ReportID, error) {
	id := chi.URLParam(req, "id")
	if !middleware.ValidID(id) {
		return "", domreports.ErrNotFound
	}
	return domreports.ReportID(id), nil
}

// analyzeRequest is the JSON form of POST /api/analyses. Multipart uploads
// carry the same fields as form values plus files[].
type analyzeRequest struct {
	assurance.ProjectData
	Save     bool                `json:"save"`
	ViewMode domreports.ViewMode `json:"viewMode"`
}

type analyzeResponse struct {
	Report        *assurance.AssuranceReport  `json:"report"`
	Documents     []assurance.DocumentSummary `json:"documents"`
	SavedReportID domreports.ReportID         `json:"savedReportId,omitempty"`
	SaveError     string                      `json:"saveError,omitempty"`
}

const saveFailedMsg = "The report was generated but could not be saved"

// POST /api/analyses
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	var in analyzeRequest
	mt, _, _ := mime.ParseMediaType(req.Header.Get("Content-Type"))
	if mt == "multipart/form-data" {
		if err := r.readMultipart(req, &in); err != nil {
			return err
		}
	} else if err := decode(req, &in); err != nil {
		return err
	}
	in.Name = middleware.SanitizeString(in.Name)
	in.Number = middleware.SanitizeString(in.Number)

	u := middleware.UserFromContext(req.Context())
	if in.Save && !u.Can(identity.PermReportsCreate) {
		return identity.ErrForbidden
	}

	report, err := r.Analysis.Analyze(req.Context(), in.ProjectData)
	if err != nil {
		return err
	}

	resp := analyzeResponse{Report: report, Documents: in.DocumentSummaries()}
	if in.Save {
		saved, err := r.Reports.Save(req.Context(), actor(req), reports.SaveCommand{
			Project:  in.ProjectData,
			Report:   *report,
			ViewMode: in.ViewMode,
		})
		// the report stays in the response; the client can retry POST /api/reports
		if err != nil {
			logging.FromContext(req.Context(), r.Log).Error("save after analysis failed",
				zap.String("project_number", in.Number), zap.Error(err))
			resp.SaveError = saveFailedMsg
		} else {
			resp.SavedReportID = saved.ID
		}
	}
	return writeJSON(w, http.StatusOK, resp)
}

func (r *Router) readMultipart(req *http.Request, in *analyzeRequest) error {
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return err
		}
		return badRequest("Invalid multipart form")
	}
	form := req.MultipartForm
	defer form.RemoveAll()

	in.Name = req.FormValue("name")
	in.Number = req.FormValue("number")
	in.Stage = assurance.Stage(req.FormValue("stage"))
	for _, f := range form.Value["focusAreas"] {
		in.FocusAreas = append(in.FocusAreas, assurance.FocusArea(f))
	}
	in.Save, _ = strconv.ParseBool(req.FormValue("save"))
	in.ViewMode = domreports.ViewMode(req.FormValue("viewMode"))

	headers := form.File["files"]
	files := make([]ingest.File, 0, len(headers))
	opened := make([]multipart.File, 0, len(headers))
	defer func() {
		for _, f := range opened {
			f.Close()
		}
	}()
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return fmt.Errorf("open %s: %w", fh.Filename, err)
		}
		opened = append(opened, f)
		files = append(files, ingest.File{Name: fh.Filename, ContentType: fh.Header.Get("Content-Type"), Body: f})
	}

	docs, err := r.Ingest.ReadAll(req.Context(), files)
	if err != nil {
		return badRequest(err.Error())
	}
	in.Documents = docs
	return nil
}

// GET /api/reports?limit=&offset=
func (r *Router) handleListReports(w http.ResponseWriter, req *http.Request) error {
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(req.URL.Query().Get("offset"))
	list, err := r.Reports.List(req.Context(), actor(req).OrganizationID, limit, offset)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// POST /api/reports
// Body: {"projectName","projectNumber","projectStage","report","documents","viewMode"}
func (r *Router) handleSaveReport(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		ProjectName   string                      `json:"projectName"`
		ProjectNumber string                      `json:"projectNumber"`
		ProjectStage  assurance.Stage             `json:"projectStage"`
		Report        *assurance.AssuranceReport  `json:"report"`
		Documents     []assurance.DocumentSummary `json:"documents"`
		ViewMode      domreports.ViewMode         `json:"viewMode"`
	}
	if err := decode(req, &body); err != nil {
		return err
	}
	var v middleware.Validator
	v.Check(strings.TrimSpace(body.ProjectName) != "", "projectName is required")
	v.Check(body.Report != nil, "report is required")
	v.Check(body.ProjectStage == "" || assurance.ValidStage(body.ProjectStage), "unknown projectStage %q", body.ProjectStage)
	if err := v.Err(); err != nil {
		return err
	}

	project := assurance.ProjectData{
		Name:   middleware.SanitizeString(body.ProjectName),
		Number: middleware.SanitizeString(body.ProjectNumber),
		Stage:  body.ProjectStage,
	}
	for _, d := range body.Documents {
		project.Documents = append(project.Documents, assurance.ProjectDocument{
			ID: d.ID, Name: d.Name, Type: d.Type, Size: d.Size, Category: d.Category,
		})
	}
	saved, err := r.Reports.Save(req.Context(), actor(req), reports.SaveCommand{
		Project:  project,
		Report:   *body.Report,
		ViewMode: body.ViewMode,
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, saved)
}

// GET /api/reports/{id}
func (r *Router) handleGetReport(w http.ResponseWriter, req *http.Request) error {
	id, err := reportID(req)
	if err != nil {
		return err
	}
	rep, err := r.Reports.Get(req.Context(), actor(req).OrganizationID, id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, rep)
}

// DELETE /api/reports/{id}
func (r *Router) handleDeleteReport(w http.ResponseWriter, req *http.Request) error {
	id, err := reportID(req)
	if err != nil {
		return err
	}
	if err := r.Reports.Delete(req.Context(), actor(req), id); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"message": "Report deleted successfully", "id": id})
}

// GET /api/reports/{id}/view?mode=dashboard|professional
func (r *Router) handleViewReport(w http.ResponseWriter, req *http.Request) error {
	id, err := reportID(req)
	if err != nil {
		return err
	}
	mode := domreports.ParseViewMode(req.URL.Query().Get("mode"))
	html, err := r.Reports.View(req.Context(), actor(req).OrganizationID, id, mode)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err = w.Write(html)
	return err
}

// GET /api/reports/{id}/export/xlsx
func (r *Router) handleExportXLSX(w http.ResponseWriter, req *http.Request) error {
	id, err := reportID(req)
	if err != nil {
		return err
	}
	exp, err := r.Reports.ExportXLSX(req.Context(), actor(req).OrganizationID, id)
	if err != nil {
		return err
	}
	return attachment(w, exp.Filename, exp.ContentType, exp.Data)
}

// GET /api/reports/{id}/export/pdf?mode=
func (r *Router) handleExportPDF(w http.ResponseWriter, req *http.Request) error {
	id, err := reportID(req)
	if err != nil {
		return err
	}
	mode := domreports.ParseViewMode(req.URL.Query().Get("mode"))
	exp, err := r.Reports.ExportPDF(req.Context(), actor(req).OrganizationID, id, mode)
	if err != nil {
		return err
	}
	return attachment(w, exp.Filename, exp.ContentType, exp.Data)
}

// POST /api/reports/{id}/exports?mode=
func (r *Router) handleArchive(w http.ResponseWriter, req *http.Request) error {
	id, err := reportID(req)
	if err != nil {
		return err
	}
	mode := domreports.ParseViewMode(req.URL.Query().Get("mode"))
	exports, err := r.Reports.Archive(req.Context(), actor(req).OrganizationID, id, mode)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, map[string]any{"exports": exports})
}
