package classify

import (
	"testing"

	"github.com/pascan/pascan/internal/model"
)

const typeZone = `
  TForm4 = class(TForm)
    Button1: TButton;
    procedure Button1Click(Sender: TObject);
  end;
  TDM = class(TDataModule)
  end;
  TCalc = class(TInterfacedObject, ICalc)
  end;
  ICalc = interface
    function Somar(A, B: Integer): Integer;
  end;
  TPlain = class
  end;
  TPoint = record
    X, Y: Integer;
  end;
  TFormClass = class of TForm4;
`

func findType(tds []model.TypeDeclaration, name string) (model.TypeDeclaration, bool) {
	for _, td := range tds {
		if td.Name == name {
			return td, true
		}
	}
	return model.TypeDeclaration{}, false
}

func TestTypes_Categories(t *testing.T) {
	got := Types(typeZone, 1)

	tests := []struct {
		name string
		want model.TypeCategory
	}{
		{"TForm4", model.CategoryForm},
		{"TDM", model.CategoryDataModule},
		{"TCalc", model.CategoryClass},
		{"ICalc", model.CategoryInterface},
		{"TPlain", model.CategoryClass},
		{"TPoint", model.CategoryUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			td, ok := findType(got, tt.name)
			if !ok {
				t.Fatalf("%s not found in %+v", tt.name, got)
			}
			if td.Category != tt.want {
				t.Errorf("Category = %q, want %q", td.Category, tt.want)
			}
		})
	}
}

func TestTypes_MetaclassSkipped(t *testing.T) {
	got := Types(typeZone, 1)
	if _, ok := findType(got, "TFormClass"); ok {
		t.Error("metaclass alias TFormClass should not be reported as a declaration")
	}
}

func TestTypes_AncestryOrder(t *testing.T) {
	got := Types(typeZone, 1)

	td, ok := findType(got, "TCalc")
	if !ok {
		t.Fatal("TCalc not found")
	}
	if len(td.Ancestors) != 2 || td.Ancestors[0] != "TInterfacedObject" || td.Ancestors[1] != "ICalc" {
		t.Errorf("Ancestors = %v, want [TInterfacedObject ICalc]", td.Ancestors)
	}
	if len(td.ImplementedInterfaces) != 1 || td.ImplementedInterfaces[0] != "ICalc" {
		t.Errorf("ImplementedInterfaces = %v, want [ICalc]", td.ImplementedInterfaces)
	}
}

func TestTypes_CaseInsensitiveBases(t *testing.T) {
	zone := "  TMain = CLASS(tform)\n  end;\n"
	got := Types(zone, 1)
	td, ok := findType(got, "TMain")
	if !ok {
		t.Fatal("TMain not found")
	}
	if td.Category != model.CategoryForm {
		t.Errorf("Category = %q, want form for lowercase ancestor", td.Category)
	}
}

func TestTypes_FirstRuleWins(t *testing.T) {
	// A form descendant that also implements an interface stays a Form.
	zone := "  THybrid = class(TForm, IObserver)\n  end;\n"
	got := Types(zone, 1)
	td, ok := findType(got, "THybrid")
	if !ok {
		t.Fatal("THybrid not found")
	}
	if td.Category != model.CategoryForm {
		t.Errorf("Category = %q, want form", td.Category)
	}
}

func TestTypes_Lines(t *testing.T) {
	got := Types(typeZone, 100)
	td, ok := findType(got, "TForm4")
	if !ok {
		t.Fatal("TForm4 not found")
	}
	// typeZone starts with a newline, so TForm4 sits on the zone's second line.
	if td.Line != 101 {
		t.Errorf("Line = %d, want 101", td.Line)
	}
}

func TestTypes_ClassMembersNotDeclarations(t *testing.T) {
	zone := `  TWorker = class(TObject)
  const
    MaxItems = MAX_COUNT;
  private
    FCount: Integer;
  end;
  TAlias = Integer;
`
	got := Types(zone, 1)

	if _, ok := findType(got, "MaxItems"); ok {
		t.Error("class-scoped constant MaxItems reported as a type declaration")
	}
	td, ok := findType(got, "TWorker")
	if !ok {
		t.Fatal("TWorker not found")
	}
	if td.Category != model.CategoryClass {
		t.Errorf("TWorker Category = %q, want class", td.Category)
	}
	// Top-level declarations after the class body are still seen.
	td, ok = findType(got, "TAlias")
	if !ok {
		t.Fatal("TAlias not found")
	}
	if td.Category != model.CategoryUnknown {
		t.Errorf("TAlias Category = %q, want unknown", td.Category)
	}
}

func TestTypes_Empty(t *testing.T) {
	if got := Types("", 1); len(got) != 0 {
		t.Errorf("Types(empty) = %+v, want none", got)
	}
}
