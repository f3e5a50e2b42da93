package handlers

import (
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/taibogaston/admininmo-sub000/service/business"
	"github.com/taibogaston/admininmo-sub000/service/models"
)

type reviewProofBody struct {
	Approved  bool   `json:"approved"`
	Comment   string `json:"comment"`
	ProofKind string `json:"proofKind"`
}

type executeTransfersBody struct {
	OwnerTransferRef  string `json:"ownerTransferRef"`
	AgencyTransferRef string `json:"agencyTransferRef"`
	Comment           string `json:"comment"`
}

var proofFields = []struct {
	field string
	kind  models.ProofKind
}{
	{"owner", models.ProofKindOwner},
	{"agency", models.ProofKindAgency},
}

// UploadProofs accepts the owner and agency receipts as multipart files and registers them together.
func (rs *RentServer) UploadProofs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, err := actorFrom(r)
	if err != nil {
		rs.writeError(w, r, err)
		return
	}
	paymentID := mux.Vars(r)["paymentId"]

	// Nothing is stored for callers who could not register the proof anyway.
	if err = rs.Reconciliation.AuthorizeProofUpload(ctx, actor, paymentID); err != nil {
		rs.writeError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, rs.maxUploadBytes())
	if err = r.ParseMultipartForm(rs.maxUploadBytes()); err != nil {
		rs.writeError(w, r, status.Error(codes.InvalidArgument, "Proof upload must be a multipart form within the size limit"))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	var proofs []business.ProofUpload
	for _, proof := range proofFields {
		headers := r.MultipartForm.File[proof.field]
		if len(headers) == 0 {
			continue
		}
		ref, storeErr := rs.storeProof(r, headers[0])
		if storeErr != nil {
			rs.discardProofs(r, proofs)
			rs.writeError(w, r, storeErr)
			return
		}
		proofs = append(proofs, business.ProofUpload{Kind: proof.kind, FileRef: ref})
	}

	if len(proofs) == 0 {
		rs.writeError(w, r, business.ErrorMissingFileReference)
		return
	}

	transfer, err := rs.Reconciliation.RegisterProofs(ctx, actor, business.RegisterProofsRequest{
		PaymentID: paymentID,
		Proofs:    proofs,
		Comment:   r.FormValue("comment"),
	})
	if err != nil {
		rs.discardProofs(r, proofs)
		rs.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransferResponse(transfer))
}

// discardProofs removes files stored for a request whose registration did not commit.
func (rs *RentServer) discardProofs(r *http.Request, proofs []business.ProofUpload) {
	for _, proof := range proofs {
		if err := rs.Files.Remove(r.Context(), proof.FileRef); err != nil {
			rs.Logger.Warn(r.Context(), err, "could not remove unregistered proof file", "file_ref", proof.FileRef)
		}
	}
}

func (rs *RentServer) storeProof(r *http.Request, header *multipart.FileHeader) (string, error) {
	file, err := header.Open()
	if err != nil {
		return "", status.Error(codes.InvalidArgument, "Uploaded proof could not be read")
	}
	defer func() { _ = file.Close() }()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	ref, err := rs.Files.Store(r.Context(), header.Filename, contentType, file, header.Size)
	if err != nil {
		rs.Logger.Warn(r.Context(), err, "could not store proof file", "file_name", header.Filename)
		return "", status.Error(codes.Internal, "Proof file could not be stored")
	}
	return ref, nil
}

func (rs *RentServer) GetTransfer(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		rs.writeError(w, r, err)
		return
	}
	transfer, err := rs.Reconciliation.GetTransfer(r.Context(), actor, mux.Vars(r)["paymentId"])
	if err != nil {
		rs.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransferResponse(transfer))
}

func (rs *RentServer) ExecuteTransfers(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		rs.writeError(w, r, err)
		return
	}
	var body executeTransfersBody
	if err = decodeBody(r, &body); err != nil {
		rs.writeError(w, r, err)
		return
	}
	transfer, err := rs.Reconciliation.ExecuteManualTransfers(r.Context(), actor, business.ManualExecutionRequest{
		PaymentID:         mux.Vars(r)["paymentId"],
		OwnerTransferRef:  body.OwnerTransferRef,
		AgencyTransferRef: body.AgencyTransferRef,
		Comment:           body.Comment,
	})
	if err != nil {
		rs.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransferResponse(transfer))
}

func (rs *RentServer) ReviewProof(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		rs.writeError(w, r, err)
		return
	}
	var body reviewProofBody
	if err = decodeBody(r, &body); err != nil {
		rs.writeError(w, r, err)
		return
	}
	transfer, err := rs.Reconciliation.ReviewProof(r.Context(), actor, business.ReviewProofRequest{
		TransferID: mux.Vars(r)["transferId"],
		Kind:       models.ProofKind(strings.ToUpper(strings.TrimSpace(body.ProofKind))),
		Approved:   body.Approved,
		Comment:    body.Comment,
	})
	if err != nil {
		rs.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransferResponse(transfer))
}
