package controllers

import (
	"bytes"
	"errors"
	"fmt"
	"medibook/apperrors"
	"medibook/authentication"
	"medibook/configuration"
	"medibook/models"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jung-kurt/gofpdf"
	"gorm.io/gorm"
)

// DownloadReceipt renders the payment receipt PDF for one of the caller's
// paid appointments.
func DownloadReceipt(c *gin.Context) {
	var payment models.Payment
	if err := configuration.DB.Where("payment_id = ?", c.Param("id")).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			apperrors.Respond(c, apperrors.NotFound("PAYMENT_NOT_FOUND", "payment not found"))
			return
		}
		apperrors.Respond(c, apperrors.Internal("failed to fetch payment", err))
		return
	}

	var appointment models.Appointment
	if err := configuration.DB.First(&appointment, payment.AppointmentID).Error; err != nil {
		apperrors.Respond(c, apperrors.Internal("failed to fetch appointment", err))
		return
	}

	patientID, role := authentication.CurrentUser(c)
	if role == models.RolePatient && appointment.PatientID != patientID {
		apperrors.Respond(c, apperrors.Auth("NOT_YOUR_APPOINTMENT", "this receipt belongs to another patient"))
		return
	}

	var doctor models.Doctor
	if err := configuration.DB.First(&doctor, appointment.DoctorID).Error; err != nil {
		apperrors.Respond(c, apperrors.Internal("failed to fetch doctor", err))
		return
	}
	var patient models.Patient
	if err := configuration.DB.First(&patient, appointment.PatientID).Error; err != nil {
		apperrors.Respond(c, apperrors.Internal("failed to fetch patient", err))
		return
	}

	pdfBytes, err := generateReceiptPDF(appointment, payment, doctor, patient)
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("failed to generate receipt", err))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=receipt-%s.pdf", payment.PaymentID))
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}

// generateReceiptPDF builds the payment receipt document.
func generateReceiptPDF(appointment models.Appointment, payment models.Payment, doctor models.Doctor, patient models.Patient) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.SetTextColor(128, 0, 128)
	pdf.CellFormat(0, 10, "MediBook - Appointment Booking", "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "B", 12)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 10, "Payment Receipt", "1", 1, "C", false, 0, "")
	receiptDetail(pdf, "Receipt ID", payment.PaymentID, true)
	receiptDetail(pdf, "Doctor Name", doctor.Name, true)
	receiptDetail(pdf, "Specialization", doctor.Specialization, true)
	receiptDetail(pdf, "Patient Name", patient.Name, true)
	receiptDetail(pdf, "Appointment Date", appointment.Date, true)
	receiptDetail(pdf, "Time Slot", appointment.TimeSlot.StartTime+"-"+appointment.TimeSlot.EndTime, true)

	pdf.CellFormat(0, 10, "Payment Details", "1", 1, "C", false, 0, "")
	receiptDetail(pdf, "Method", string(payment.Method), false)
	receiptDetail(pdf, "Transaction ID", payment.TransactionID, false)
	receiptDetail(pdf, "Paid On", payment.CreatedAt.Format("2006-01-02"), false)
	pdf.SetFont("Arial", "B", 13)
	receiptDetail(pdf, "Amount Paid", fmt.Sprintf("%.2f %s", payment.Amount, payment.Currency), true)

	pdf.SetFont("Arial", "", 10)
	pdf.MultiCell(0, 5, "Thank you for using our service.", "", "L", false)
	pdf.SetY(pdf.GetY() + 12)
	pdf.CellFormat(0, 10, "This is a computer generated receipt", "", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func receiptDetail(pdf *gofpdf.Fpdf, label, value string, isHeader bool) {
	if isHeader {
		pdf.SetFont("Arial", "B", 12)
		pdf.SetFillColor(255, 255, 255)
	} else {
		pdf.SetFont("Arial", "", 10)
		pdf.SetFillColor(240, 240, 240)
	}
	pdf.CellFormat(45, 10, label, "1", 0, "", false, 0, "")
	pdf.CellFormat(0, 10, value, "1", 1, "", false, 0, "")
}
