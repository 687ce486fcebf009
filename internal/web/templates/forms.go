//go:generate go run github.com/a-h/templ/cmd/templ@v0.3.960 generate

package templates

// AuthForm is the state of the login and register pages.
type AuthForm struct {
	Email  string
	Error  string
	Notice string
}

// GenerateForm is the state of the generate page. PreviewHTML is inserted
// unescaped; the spreadsheet preview escapes every cell itself.
type GenerateForm struct {
	User        string
	Count       int
	Delimiter   string
	TargetEmail string

	Message     string
	OK          bool
	FileName    string
	PreviewHTML string
}

var delimiters = []string{";", ","}

const styleTag = `<style>
body{font-family:system-ui,sans-serif;margin:0;background:#f5f6f8;color:#222}
header{background:#1f3a5f;color:#fff;padding:.75rem 1.5rem;display:flex;justify-content:space-between;align-items:center}
header form{margin:0}
main{max-width:960px;margin:2rem auto;padding:0 1rem}
.card{background:#fff;border-radius:6px;padding:1.5rem;box-shadow:0 1px 3px rgba(0,0,0,.1);margin-bottom:1.5rem}
label{display:block;margin:.5rem 0 .25rem}
input,select{padding:.4rem;width:100%;box-sizing:border-box}
button{margin-top:1rem;padding:.5rem 1rem;cursor:pointer}
.alert{padding:.75rem 1rem;border-radius:4px;margin-bottom:1rem}
.alert-error{background:#fdecea;color:#8a1c13}
.alert-ok{background:#e7f5ea;color:#1e5e2b}
.alert small{display:block;opacity:.8}
.preview-summary{margin:.5rem 0}
.preview-scroll{overflow:auto;max-height:480px}
.preview-table{border-collapse:collapse;font-size:.85rem}
.preview-table th,.preview-table td{border:1px solid #ccc;padding:.25rem .5rem;white-space:nowrap}
.preview-table th{background:#eef1f5;position:sticky;top:0}
</style>`
