package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log"
	"time"

	config "qpms_backend/configs"
	"qpms_backend/database"
	"qpms_backend/models"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

// ExportApprovedPaperPDF renders the approved snapshot of a paper to PDF and
// uploads it, returning the public URL. The export reads snapshot rows, not
// live question rows, so a paper re-opened after approval still exports the
// content that was actually approved.
func ExportApprovedPaperPDF(subjectCode string, semester int) (string, error) {
	var rows []models.ApprovedQuestion
	if err := database.DB.
		Where("lower(subject_code) = lower(?) AND semester = ?", subjectCode, semester).
		Order("question_number asc").
		Find(&rows).Error; err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", ErrPaperNotFound
	}

	htmlData, err := renderPaperHTML(rows)
	if err != nil {
		return "", fmt.Errorf("failed to render paper HTML: %w", err)
	}

	pdfBytes, err := generatePDFFromHTML(htmlData)
	if err != nil {
		return "", fmt.Errorf("failed to generate PDF: %w", err)
	}

	url, err := uploadPaperPDF(pdfBytes, rows[0].SubjectCode, semester)
	if err != nil {
		return "", fmt.Errorf("failed to upload paper PDF: %w", err)
	}

	log.Printf("✅ Exported approved paper %s/%d to %s", rows[0].SubjectCode, semester, url)
	return url, nil
}

type paperTemplateData struct {
	SubjectCode string
	SubjectName string
	Department  string
	Semester    int
	TotalMarks  float64
	Questions   []models.ApprovedQuestion
	GeneratedAt string
}

func renderPaperHTML(rows []models.ApprovedQuestion) (string, error) {
	tmpl, err := template.ParseFiles("templates/paper.html")
	if err != nil {
		return "", err
	}

	total := 0.0
	for _, q := range rows {
		total += q.Marks
	}

	data := paperTemplateData{
		SubjectCode: rows[0].SubjectCode,
		SubjectName: rows[0].SubjectName,
		Department:  rows[0].Department,
		Semester:    rows[0].Semester,
		TotalMarks:  total,
		Questions:   rows,
		GeneratedAt: time.Now().Format("02 Jan 2006 15:04"),
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func generatePDFFromHTML(html string) ([]byte, error) {
	ctx, cancel := chromedp.NewContext(context.Background())
	defer cancel()

	ctx, cancel = context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var pdfBytes []byte
	err := chromedp.Run(ctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, html).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdfBytes, _, err = page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdfBytes, nil
}

func uploadPaperPDF(pdfBytes []byte, subjectCode string, semester int) (string, error) {
	cld, err := cloudinary.NewFromURL(config.Config("CLOUDINARY_URL"))
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	publicID := fmt.Sprintf("papers/%s_sem%d_%s", subjectCode, semester, uuid.New().String()[:8])
	resp, err := cld.Upload.Upload(ctx, bytes.NewReader(pdfBytes), uploader.UploadParams{
		PublicID:     publicID,
		ResourceType: "raw",
	})
	if err != nil {
		return "", err
	}
	return resp.SecureURL, nil
}
