package handlers

import (
	"net/http"

	"expensehub-server/src/receipts"

	"github.com/sirupsen/logrus"
)

const maxReceiptSize = 5 << 20 // 5MB

var allowedReceiptTypes = map[string]struct{}{
	"image/jpeg":      {},
	"image/png":       {},
	"image/gif":       {},
	"application/pdf": {},
}

// UploadReceipt accepts a multipart receipt file and stores it remotely,
// returning the URL and public id the client attaches to an expense.
func UploadReceipt(receiptClient *receipts.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if receiptClient == nil {
			respondError(w, http.StatusServiceUnavailable, "receipt uploads are not configured")
			return
		}

		userID := currentUserID(r)
		r.Body = http.MaxBytesReader(w, r.Body, maxReceiptSize)
		if err := r.ParseMultipartForm(maxReceiptSize); err != nil {
			respondError(w, http.StatusBadRequest, "file too large or invalid multipart body")
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			respondError(w, http.StatusBadRequest, "file is required")
			return
		}
		defer file.Close()

		contentType := header.Header.Get("Content-Type")
		if _, ok := allowedReceiptTypes[contentType]; !ok {
			respondError(w, http.StatusBadRequest, "file must be a jpeg, png, gif or pdf")
			return
		}

		url, publicID, err := receiptClient.Upload(r.Context(), file, userID)
		if err != nil {
			logrus.WithError(err).WithField("user_id", userID).Error("failed to upload receipt")
			respondError(w, http.StatusInternalServerError, "failed to upload receipt")
			return
		}

		logrus.WithFields(logrus.Fields{"user_id": userID, "public_id": publicID}).Info("receipt uploaded")
		respondJSON(w, http.StatusCreated, map[string]string{
			"url":       url,
			"public_id": publicID,
		})
	}
}
