package maven

import (
	"bytes"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"packreg/internal/digest"
	"packreg/internal/lockmap"
	"packreg/internal/models"
	"packreg/internal/registry"
	"packreg/internal/store"
)

// Type is the registry type recorded on package rows.
const Type = "maven"

const (
	// maxChecksumSize bounds the body of a checksum-verification upload.
	// The read happens while holding the coordinate lock, so the bound
	// also caps the lock hold time.
	maxChecksumSize = 1000

	contentTypeJAR  = "application/java-archive"
	contentTypeXML  = "application/xml"
	contentTypeText = "text/plain"

	buildHeader = "X-Packreg-Build"
)

// Service implements the maven repository layout on top of the shared
// package index and blob store.
type Service struct {
	store       *store.Store
	blobs       *registry.BlobService
	locks       *lockmap.LockMap
	access      registry.Access
	publisher   registry.Publisher
	logger      *slog.Logger
	metadataLoc *time.Location
}

// NewService constructs the maven registry service. metadataLoc selects
// the zone for synthesized lastUpdated timestamps; nil means UTC.
func NewService(st *store.Store, blobs *registry.BlobService, locks *lockmap.LockMap,
	access registry.Access, publisher registry.Publisher, logger *slog.Logger,
	metadataLoc *time.Location) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if metadataLoc == nil {
		metadataLoc = time.UTC
	}
	return &Service{
		store:       st,
		blobs:       blobs,
		locks:       locks,
		access:      access,
		publisher:   publisher,
		logger:      logger.With("registry", Type),
		metadataLoc: metadataLoc,
	}
}

// ServiceID identifies this registry on the HTTP surface.
func (s *Service) ServiceID() string { return Type }

// Serve handles one registry request below /maven/{project}/.
func (s *Service) Serve(w http.ResponseWriter, r *http.Request, project string, segments []string) error {
	req, err := Resolve(segments)
	if err != nil {
		return err
	}

	isGet := r.Method == http.MethodGet
	isHead := r.Method == http.MethodHead

	if req.Kind == KindMetadata {
		return s.serveMetadata(w, r, project, req)
	}
	if isGet || isHead {
		return s.serveBlob(w, r, project, req, isGet)
	}
	return s.uploadBlob(w, r, project, req)
}

// serveMetadata synthesizes the version-listing document from the package
// index, or falls back to a group-level file when no versions exist under
// the group/artifact (the path then denotes a deeper group id).
func (s *Service) serveMetadata(w http.ResponseWriter, r *http.Request, project string, req Request) error {
	ctx := r.Context()
	isGet := r.Method == http.MethodGet
	isHead := r.Method == http.MethodHead

	if isGet || isHead {
		if err := s.access.CheckRead(ctx, project); err != nil {
			return err
		}
	} else if err := s.access.CheckWrite(ctx, project); err != nil {
		return err
	}

	infos, err := s.store.ListVersions(ctx, project, Type, req.GroupID, req.ArtifactID)
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fallback := req.GroupFallback()
		if isGet || isHead {
			return s.serveBlob(w, r, project, fallback, isGet)
		}
		return s.uploadBlob(w, r, project, fallback)
	}

	latest := infos[len(infos)-1]

	if !isGet && !isHead {
		// Clients touch the metadata path after publishing; the document
		// itself is regenerated from existing versions, so the write is
		// ignored apart from the published notification.
		if req.FileName == MetadataFile && s.publisher != nil {
			s.publisher.PackagePublished(ctx, registry.Event{
				Project:     project,
				Type:        Type,
				GroupID:     req.GroupID,
				ArtifactID:  req.ArtifactID,
				Version:     latest.Version,
				PublishedAt: latest.PublishedAt,
			})
		}
		w.WriteHeader(http.StatusOK)
		return nil
	}

	if isHead {
		w.Header().Set("Last-Modified", latest.PublishedAt.UTC().Format(http.TimeFormat))
		w.WriteHeader(http.StatusOK)
		return nil
	}

	md := Synthesize(req.GroupID, req.ArtifactID, infos, s.metadataLoc)
	payload, err := md.MarshalBytes()
	if err != nil {
		return err
	}

	if algo, ok := digest.ChecksumAlgorithm(req.FileName); ok {
		sum, err := digest.Compute(bytes.NewReader(payload), algo)
		if err != nil {
			return err
		}
		w.Header().Set("Content-Type", contentTypeText)
		w.WriteHeader(http.StatusOK)
		_, err = io.WriteString(w, sum)
		return err
	}

	w.Header().Set("Content-Type", contentTypeXML)
	w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
	w.Header().Set("Last-Modified", latest.PublishedAt.UTC().Format(http.TimeFormat))
	w.WriteHeader(http.StatusOK)
	_, err = w.Write(payload)
	return err
}

// serveBlob answers GET/HEAD for artifact and group-level files. Reads
// take no lock; the files map is swapped atomically under the write lock,
// so a read sees a consistent before-or-after state.
func (s *Service) serveBlob(w http.ResponseWriter, r *http.Request, project string, req Request, isGet bool) error {
	ctx := r.Context()
	if err := s.access.CheckRead(ctx, project); err != nil {
		return err
	}

	pkg, err := s.store.GetPackage(ctx, project, Type, req.GroupID, req.ArtifactID, req.Version)
	if err != nil {
		return err
	}
	if pkg == nil {
		return registry.NotFound("unknown GAV")
	}

	if !isGet {
		w.Header().Set("Last-Modified", pkg.PublishedAt.UTC().Format(http.TimeFormat))
		w.WriteHeader(http.StatusOK)
		return nil
	}

	blobName := digest.BaseName(req.FileName)
	sha256 := pkg.Files[blobName]
	if sha256 == "" {
		return registry.NotFound("unknown file")
	}

	if algo, ok := digest.ChecksumAlgorithm(req.FileName); ok {
		sum := sha256
		if algo != digest.SHA256 {
			blob, err := s.blobs.FindBySHA256(ctx, project, sha256)
			if err != nil {
				return err
			}
			if blob == nil {
				return registry.NotFound("missing file")
			}
			ok, err := s.blobs.Verify(ctx, blob)
			if err != nil {
				return err
			}
			if !ok {
				return registry.NotFound("invalid file")
			}
			sum, err = s.blobs.SecondaryDigest(ctx, blob, algo)
			if err != nil {
				return err
			}
		}
		w.Header().Set("Content-Type", contentTypeText)
		w.WriteHeader(http.StatusOK)
		_, err := io.WriteString(w, sum)
		return err
	}

	blob, err := s.blobs.FindBySHA256(ctx, project, sha256)
	if err != nil {
		return err
	}
	if blob == nil {
		return registry.NotFound("missing file")
	}
	ok, err := s.blobs.Verify(ctx, blob)
	if err != nil {
		return err
	}
	if !ok {
		return registry.NotFound("invalid file")
	}

	w.Header().Set("Content-Type", contentTypeForFile(req.FileName))
	w.Header().Set("Content-Length", strconv.FormatInt(blob.SizeBytes, 10))
	w.Header().Set("Last-Modified", pkg.PublishedAt.UTC().Format(http.TimeFormat))
	w.WriteHeader(http.StatusOK)
	return s.blobs.Download(ctx, blob, w)
}

// uploadBlob handles write requests: checksum-verification uploads for
// checksum file names, streamed content uploads otherwise.
func (s *Service) uploadBlob(w http.ResponseWriter, r *http.Request, project string, req Request) error {
	ctx := r.Context()
	if err := s.access.CheckWrite(ctx, project); err != nil {
		return err
	}

	lockName := lockNameFor(project, req)

	if algo, ok := digest.ChecksumAlgorithm(req.FileName); ok {
		return s.verifyChecksumUpload(w, r, project, req, lockName, algo)
	}

	// Stream the body into the blob store before taking the lock: the
	// transfer is the slow part and must not block other writers.
	blob, err := s.blobs.Upload(ctx, project, r.Body)
	if err != nil {
		return fmt.Errorf("store upload content: %w", err)
	}

	publisher := registry.PrincipalFrom(ctx)
	build := strings.TrimSpace(r.Header.Get(buildHeader))
	blobName := digest.BaseName(req.FileName)

	err = s.locks.Run(lockName, func() error {
		return s.store.WithTx(ctx, func(tx *sql.Tx) error {
			pkg, err := s.store.GetPackageTx(ctx, tx, project, Type, req.GroupID, req.ArtifactID, req.Version)
			if err != nil {
				return err
			}
			if pkg == nil {
				pkg = &models.Package{
					Project:    project,
					Type:       Type,
					GroupID:    req.GroupID,
					ArtifactID: req.ArtifactID,
					Version:    req.Version,
					Files:      map[string]string{},
				}
			}
			pkg.Publisher = publisher
			pkg.Build = build
			pkg.PublishedAt = time.Now().UTC()

			prevSHA256 := pkg.Files[blobName]
			pkg.Files[blobName] = blob.SHA256

			if err := s.store.SavePackageTx(ctx, tx, pkg); err != nil {
				return err
			}
			if err := s.store.CreateReferenceTx(ctx, tx, pkg.ID, blob.ID); err != nil {
				return err
			}
			if prevSHA256 != "" && prevSHA256 != blob.SHA256 {
				prevBlob, err := s.store.GetBlobBySHA256Tx(ctx, tx, project, prevSHA256)
				if err != nil {
					return err
				}
				if prevBlob != nil {
					if err := s.store.DeleteReferenceTx(ctx, tx, pkg.ID, prevBlob.ID); err != nil {
						return err
					}
				}
			}
			return nil
		})
	})
	if err != nil {
		return err
	}

	s.logger.Info("published file",
		"project", project, "group", req.GroupID, "artifact", req.ArtifactID,
		"version", req.Version, "file", blobName, "sha256", blob.SHA256)
	w.WriteHeader(http.StatusCreated)
	return nil
}

// verifyChecksumUpload interprets the bounded request body as the textual
// checksum of an already-uploaded file. Matching checksums record a blob
// reference idempotently; a mismatch mutates nothing.
func (s *Service) verifyChecksumUpload(w http.ResponseWriter, r *http.Request, project string,
	req Request, lockName string, algo digest.Algorithm) error {
	ctx := r.Context()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxChecksumSize))
	if err != nil {
		return fmt.Errorf("read checksum body: %w", err)
	}
	if len(body) >= maxChecksumSize {
		return registry.PayloadTooLarge("checksum is too large")
	}
	submitted := string(body)
	blobName := digest.BaseName(req.FileName)

	err = s.locks.Run(lockName, func() error {
		return s.store.WithTx(ctx, func(tx *sql.Tx) error {
			pkg, err := s.store.GetPackageTx(ctx, tx, project, Type, req.GroupID, req.ArtifactID, req.Version)
			if err != nil {
				return err
			}
			if pkg == nil {
				return registry.BadRequest("unknown GAV to verify checksum")
			}
			sha256 := pkg.Files[blobName]
			if sha256 == "" {
				return registry.BadRequest("unknown file to verify checksum")
			}
			blob, err := s.store.GetBlobBySHA256Tx(ctx, tx, project, sha256)
			if err != nil {
				return err
			}
			if blob == nil {
				return registry.BadRequest("missing file to verify checksum")
			}
			ok, err := s.blobs.VerifyTx(ctx, tx, blob)
			if err != nil {
				return err
			}
			if !ok {
				return registry.BadRequest("invalid file to verify checksum")
			}

			expected := sha256
			if algo != digest.SHA256 {
				expected, err = s.blobs.SecondaryDigest(ctx, blob, algo)
				if err != nil {
					return err
				}
			}
			if expected != strings.TrimSpace(submitted) {
				return registry.BadRequest("checksum verification failed")
			}
			return s.store.CreateReferenceTx(ctx, tx, pkg.ID, blob.ID)
		})
	})
	if err != nil {
		return err
	}

	w.WriteHeader(http.StatusOK)
	return nil
}

// lockNameFor keys the coordinate lock: group-level writes and
// artifact-version writes under the same group are mutually exclusive;
// unrelated groups proceed concurrently.
func lockNameFor(project string, req Request) string {
	name := "publish:" + project + ":" + Type + ":" + req.GroupID
	if req.ArtifactID != "" && req.Version != "" {
		name += ":" + req.ArtifactID + ":" + req.Version
	}
	return name
}

func contentTypeForFile(fileName string) string {
	switch {
	case strings.HasSuffix(fileName, ".xml"), strings.HasSuffix(fileName, ".pom"):
		return contentTypeXML
	case strings.HasSuffix(fileName, ".jar"):
		return contentTypeJAR
	default:
		return "application/octet-stream"
	}
}
