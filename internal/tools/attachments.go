package tools

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"

	"github.com/localrivet/redminemcp/internal/errortypes"
	"github.com/localrivet/redminemcp/internal/redmine"
)

const categoryAttachments = "attachments"

// Content encodings accepted by upload operations.
const (
	EncodingBase64 = "base64"
	EncodingText   = "text"
)

// uploadArgs are the arguments shared by upload_file and attach_file_to_issue.
type uploadArgs struct {
	FileContent string `json:"file_content"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Description string `json:"description"`
	Encoding    string `json:"encoding"`
	IssueID     int    `json:"issue_id"`
	Notes       string `json:"notes"`
}

// Upload is the outcome of the first phase of an attachment upload.
type Upload struct {
	Token       string `json:"token"`
	UploadID    int64  `json:"upload_id,omitempty"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Description string `json:"description,omitempty"`
	Size        int    `json:"size"`
}

// Download is the payload of download_attachment. Content is never returned
// as raw bytes.
type Download struct {
	AttachmentID interface{} `json:"attachment_id"`
	Filename     string      `json:"filename"`
	ContentType  string      `json:"content_type"`
	Size         int         `json:"size"`
	Encoding     string      `json:"encoding"`
	Content      string      `json:"content_base64"`
	Attachment   interface{} `json:"attachment,omitempty"`
}

func uploadParams() []Param {
	return []Param{
		required(str("file_content", "File content, base64 encoded unless encoding is text")),
		required(str("filename", "File name; any Unicode is preserved")),
		str("content_type", "MIME type; detected from the content when omitted"),
		str("description", "Attachment description"),
		withDefault(enum("encoding", "How file_content is encoded", EncodingBase64, EncodingText), EncodingBase64),
	}
}

func attachmentTools() []Tool {
	attachmentID := required(integer("attachment_id", "Attachment id"))
	return []Tool{
		{
			Descriptor: Descriptor{
				Name: "upload_file",
				Description: "Uploads a file and returns an upload token. Pass the token in issue.uploads " +
					"of create_issue or update_issue, or to create_file, to attach it.",
				Category: categoryAttachments,
				Params:   uploadParams(),
			},
			Handler: uploadFile,
		},
		{
			Descriptor: Descriptor{
				Name:        "get_attachment",
				Description: "Returns the metadata of an attachment.",
				Category:    categoryAttachments,
				ReadOnly:    true,
				Params:      params(attachmentID),
			},
			Handler: getAttachment,
		},
		{
			Descriptor: Descriptor{
				Name:        "download_attachment",
				Description: "Downloads an attachment. The content is returned base64 encoded with its filename, content type and size.",
				Category:    categoryAttachments,
				ReadOnly:    true,
				Params:      params(attachmentID),
			},
			Handler: downloadAttachment,
		},
		{
			Descriptor: Descriptor{
				Name:        "attach_file_to_issue",
				Description: "Uploads a file and attaches it to an existing issue in one step.",
				Category:    categoryAttachments,
				Params: params(
					required(integer("issue_id", "Issue id")),
					uploadParams(),
					str("notes", "Comment added to the issue history"),
				),
			},
			Handler: attachFileToIssue,
		},
	}
}

// decodeContent turns file_content into bytes according to encoding.
func decodeContent(content, encoding string) ([]byte, error) {
	switch encoding {
	case "", EncodingBase64:
		data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(content))
		if err != nil {
			return nil, errortypes.ValidationError(err, `file_content is not valid base64; set encoding to "text" for plain text`)
		}
		return data, nil
	case EncodingText:
		return []byte(content), nil
	default:
		return nil, errortypes.ValidationError(nil, fmt.Sprintf("unsupported encoding %q", encoding))
	}
}

// detectContentType sniffs the media type of data, without parameters.
func detectContentType(data []byte) string {
	mt := mimetype.Detect(data).String()
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	return mt
}

// upload performs the first phase: send the bytes, receive a token.
func upload(ctx context.Context, c redmine.Caller, in uploadArgs) (*Upload, error) {
	if strings.TrimSpace(in.Filename) == "" {
		return nil, errortypes.ValidationError(nil, "filename must not be empty")
	}
	data, err := decodeContent(in.FileContent, in.Encoding)
	if err != nil {
		return nil, err
	}

	req := &redmine.Request{
		Method: http.MethodPost,
		Path:   "/uploads",
		Query:  url.Values{"filename": {in.Filename}},
		Body:   redmine.BinaryBody{Data: data},
	}
	resp, err := c.Call(ctx, req)
	if err != nil {
		return nil, errortypes.WithResource(err, in.Filename)
	}

	token := resp.Get("upload.token").String()
	if token == "" {
		return nil, errortypes.InternalError(nil, "upload response did not contain a token")
	}

	contentType := in.ContentType
	if contentType == "" {
		contentType = detectContentType(data)
	}
	return &Upload{
		Token:       token,
		UploadID:    resp.Get("upload.id").Int(),
		Filename:    in.Filename,
		ContentType: contentType,
		Description: in.Description,
		Size:        len(data),
	}, nil
}

// asIssueUpload renders u as an element of issue.uploads.
func (u *Upload) asIssueUpload() map[string]interface{} {
	m := map[string]interface{}{
		"token":        u.Token,
		"filename":     u.Filename,
		"content_type": u.ContentType,
	}
	if u.Description != "" {
		m["description"] = u.Description
	}
	return m
}

func uploadFile(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
	var in uploadArgs
	if err := args.Decode(&in); err != nil {
		return nil, err
	}
	up, err := upload(ctx, c, in)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"status": "uploaded",
		"upload": up,
		"usage": map[string]interface{}{
			"issue": map[string]interface{}{"uploads": []interface{}{up.asIssueUpload()}},
		},
	}, nil
}

func getAttachment(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
	res, err := getEntity(ctx, c, redmine.Path("attachments", args.Ref("attachment_id")), "attachment", nil)
	return res, withID(err, args, "attachment_id")
}

// downloadAttachment fetches the metadata and the content concurrently.
func downloadAttachment(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
	id := args.Ref("attachment_id")

	var (
		meta    *redmine.Response
		content *redmine.Response
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		meta, err = c.Call(gctx, redmine.Get(redmine.Path("attachments", id), nil))
		return err
	})
	g.Go(func() error {
		var err error
		content, err = c.Call(gctx, &redmine.Request{
			Method: http.MethodGet,
			Path:   redmine.Path("attachments", "download", id),
			Raw:    true,
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, withID(err, args, "attachment_id")
	}

	out := &Download{
		AttachmentID: idOf(args, "attachment_id"),
		Filename:     meta.Get("attachment.filename").String(),
		ContentType:  meta.Get("attachment.content_type").String(),
		Size:         len(content.Body),
		Encoding:     EncodingBase64,
		Content:      base64.StdEncoding.EncodeToString(content.Body),
		Attachment:   meta.Value("attachment"),
	}
	if out.Filename == "" {
		out.Filename = content.Filename()
	}
	if out.ContentType == "" {
		out.ContentType = content.ContentType()
	}
	if out.ContentType == "" {
		out.ContentType = detectContentType(content.Body)
	}
	return out, nil
}

// attachFileToIssue runs both upload phases: the token from the upload is
// put on the issue in the same invocation.
func attachFileToIssue(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
	var in uploadArgs
	if err := args.Decode(&in); err != nil {
		return nil, err
	}
	if err := requireAll(args, "issue_id", "filename"); err != nil {
		return nil, err
	}
	up, err := upload(ctx, c, in)
	if err != nil {
		return nil, withID(err, args, "issue_id")
	}

	issue := map[string]interface{}{"uploads": []interface{}{up.asIssueUpload()}}
	if in.Notes != "" {
		issue["notes"] = in.Notes
	}
	path := redmine.Path("issues", in.IssueID)
	if _, err := c.Call(ctx, redmine.Put(path, map[string]interface{}{"issue": issue})); err != nil {
		return nil, withID(err, args, "issue_id")
	}
	return map[string]interface{}{
		"status":   "attached",
		"issue_id": idOf(args, "issue_id"),
		"upload":   up,
	}, nil
}
