package backuprestore

import (
	"github.com/tigerroll/surfin-backuprestore/pkg/batch/catalog"
)

// credentialField is one entry of the table of credential-bearing fields.
type credentialField struct {
	kind  catalog.Kind
	field catalog.Field
	shape catalog.TransformShape
}

// credentialFields lists every field whose values are tokenized on backup and
// resolved on restore. It is the only place transforms are declared.
var credentialFields = []credentialField{
	{kind: catalog.KindStore, field: catalog.FieldConnectionParameters, shape: catalog.MapValues},
	{kind: catalog.KindCoverageStore, field: catalog.FieldURL, shape: catalog.WholeValue},
}

// RegisterDecodeTransforms makes p resolve tokens through codec while reading.
func RegisterDecodeTransforms(p *catalog.Persister, codec *CredentialTokenCodec) error {
	for _, cf := range credentialFields {
		err := p.RegisterFieldTransform(catalog.FieldTransform{
			Kind:      cf.kind,
			Field:     cf.field,
			Shape:     cf.shape,
			Direction: catalog.Decode,
			Apply: func(_ catalog.FieldContext, value string) string {
				return codec.Resolve(value)
			},
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// RegisterEncodeTransforms makes p replace credentials by placeholders while
// writing. Map values are tokenized only for sensitive keys; whole-value
// fields are always tokenized.
func RegisterEncodeTransforms(p *catalog.Persister, tokenizer *CredentialTokenizer) error {
	for _, cf := range credentialFields {
		shape := cf.shape
		err := p.RegisterFieldTransform(catalog.FieldTransform{
			Kind:      cf.kind,
			Field:     cf.field,
			Shape:     cf.shape,
			Direction: catalog.Encode,
			Apply: func(fc catalog.FieldContext, value string) string {
				if shape == catalog.MapValues && !tokenizer.IsSensitive(fc.Key) {
					return value
				}
				return tokenizer.Tokenize(fc.Workspace, fc.Store, fc.Key)
			},
		})
		if err != nil {
			return err
		}
	}
	return nil
}
