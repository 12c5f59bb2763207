package methods

import (
	"testing"

	"github.com/pascan/pascan/internal/model"
)

// --- helpers ---

func extract(t *testing.T, zone string) []model.MethodDeclaration {
	t.Helper()
	return Extract(zone, 1, New(nil, nil))
}

func findMethod(mds []model.MethodDeclaration, name string) (model.MethodDeclaration, bool) {
	for _, md := range mds {
		if md.Name == name {
			return md, true
		}
	}
	return model.MethodDeclaration{}, false
}

const implZone = `
procedure TForm4.Button1Click(Sender: TObject);
begin
  if X > 0 then
    Inc(X);
end;

function TCalc.Somar(A, B: Integer): Integer;
begin
  Result := A + B;
end;

constructor TCalc.Create;
begin
end;

procedure Standalone(const S: string; var N: Integer);
begin
  N := 0;
end;
`

func TestExtract_DeclarationOrder(t *testing.T) {
	got := extract(t, implZone)
	want := []string{"Button1Click", "Somar", "Create", "Standalone"}
	if len(got) != len(want) {
		t.Fatalf("extracted %d methods, want %d: %+v", len(got), len(want), got)
	}
	for i, name := range want {
		if got[i].Name != name {
			t.Errorf("[%d] Name = %q, want %q", i, got[i].Name, name)
		}
	}
}

func TestExtract_QualifiedMethod(t *testing.T) {
	got := extract(t, implZone)

	md, ok := findMethod(got, "Button1Click")
	if !ok {
		t.Fatal("Button1Click not found")
	}
	if md.EnclosingType != "TForm4" {
		t.Errorf("EnclosingType = %q, want TForm4", md.EnclosingType)
	}
	if md.Kind != model.KindProcedure {
		t.Errorf("Kind = %q, want procedure", md.Kind)
	}
	if md.Purpose != model.PurposeEventHandler {
		t.Errorf("Purpose = %q, want event_handler", md.Purpose)
	}
	if md.Complexity.Cyclomatic != 2 {
		t.Errorf("Cyclomatic = %d, want 2", md.Complexity.Cyclomatic)
	}
	if len(md.Parameters) != 1 || md.Parameters[0].Name != "Sender" || md.Parameters[0].Type != "TObject" {
		t.Errorf("Parameters = %+v", md.Parameters)
	}
}

func TestExtract_FunctionReturnType(t *testing.T) {
	got := extract(t, implZone)

	md, ok := findMethod(got, "Somar")
	if !ok {
		t.Fatal("Somar not found")
	}
	if md.Kind != model.KindFunction {
		t.Errorf("Kind = %q, want function", md.Kind)
	}
	if md.ReturnType != "Integer" {
		t.Errorf("ReturnType = %q, want Integer", md.ReturnType)
	}
	if md.Purpose != model.PurposeGeneralProcessing {
		t.Errorf("Purpose = %q, want general_processing", md.Purpose)
	}
	if len(md.Parameters) != 2 {
		t.Fatalf("Parameters = %+v, want 2", md.Parameters)
	}
	for i, name := range []string{"A", "B"} {
		if md.Parameters[i].Name != name || md.Parameters[i].Type != "Integer" {
			t.Errorf("Parameters[%d] = %+v", i, md.Parameters[i])
		}
	}
}

func TestExtract_ParamModifiersStripped(t *testing.T) {
	got := extract(t, implZone)

	md, ok := findMethod(got, "Standalone")
	if !ok {
		t.Fatal("Standalone not found")
	}
	if md.EnclosingType != "" {
		t.Errorf("EnclosingType = %q, want empty for free routine", md.EnclosingType)
	}
	want := []model.Parameter{{Name: "S", Type: "string"}, {Name: "N", Type: "Integer"}}
	if len(md.Parameters) != len(want) {
		t.Fatalf("Parameters = %+v", md.Parameters)
	}
	for i := range want {
		if md.Parameters[i] != want[i] {
			t.Errorf("Parameters[%d] = %+v, want %+v", i, md.Parameters[i], want[i])
		}
	}
}

func TestPurposeOf(t *testing.T) {
	ex := New(nil, nil)
	tests := []struct {
		name      string
		keyword   string
		method    string
		enclosing string
		want      model.PurposeTag
	}{
		{"click suffix", "procedure", "Button1Click", "TForm1", model.PurposeEventHandler},
		{"form prefix", "procedure", "FormCreate", "TForm1", model.PurposeEventHandler},
		{"constructor keyword wins over suffix", "constructor", "Create", "TCalc", model.PurposeConstructor},
		{"named after type", "procedure", "TWorker", "TWorker", model.PurposeConstructor},
		{"plain", "function", "Somar", "TCalc", model.PurposeGeneralProcessing},
		{"suffix must be proper", "procedure", "Click", "", model.PurposeGeneralProcessing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ex.purposeOf(tt.keyword, tt.method, tt.enclosing); got != tt.want {
				t.Errorf("purposeOf(%q, %q, %q) = %q, want %q",
					tt.keyword, tt.method, tt.enclosing, got, tt.want)
			}
		})
	}
}

func TestExtract_CustomEventPatterns(t *testing.T) {
	ex := New([]string{"Tapped"}, []string{"Grid"})
	zone := "procedure TView.IconTapped;\nbegin\nend;\n\nprocedure TView.GridRefresh;\nbegin\nend;\n"
	got := Extract(zone, 1, ex)
	if len(got) != 2 {
		t.Fatalf("extracted %d methods, want 2", len(got))
	}
	for _, md := range got {
		if md.Purpose != model.PurposeEventHandler {
			t.Errorf("%s Purpose = %q, want event_handler", md.Name, md.Purpose)
		}
	}
}

func TestExtract_GarbledSignature(t *testing.T) {
	zone := "procedure Broken(Sender TObject\nbegin\nend;\n"
	got := extract(t, zone)
	if len(got) != 1 {
		t.Fatalf("extracted %d methods, want 1", len(got))
	}
	md := got[0]
	if md.Name != "Broken" {
		t.Errorf("Name = %q, want Broken", md.Name)
	}
	if !md.ParseWarning {
		t.Error("ParseWarning = false, want true")
	}
	if md.Purpose != model.PurposeUnknown {
		t.Errorf("Purpose = %q, want unknown", md.Purpose)
	}
	if len(md.Parameters) != 0 {
		t.Errorf("Parameters = %+v, want none", md.Parameters)
	}
}

func TestExtract_ForwardDeclaration(t *testing.T) {
	zone := "procedure Later; forward;\n"
	got := extract(t, zone)
	if len(got) != 1 {
		t.Fatalf("extracted %d methods, want 1", len(got))
	}
	if got[0].Complexity.Cyclomatic != 1 {
		t.Errorf("Cyclomatic = %d, want 1 for forward declaration", got[0].Complexity.Cyclomatic)
	}
}

func TestExtract_Lines(t *testing.T) {
	got := Extract(implZone, 10, New(nil, nil))
	if len(got) == 0 {
		t.Fatal("no methods extracted")
	}
	// implZone starts with a newline, so the first header is on zone line 2.
	if got[0].Line != 11 {
		t.Errorf("Line = %d, want 11", got[0].Line)
	}
}
