package dfm

import (
	"reflect"
	"testing"
)

const sampleDFM = `object Form4: TForm4
  Left = 0
  Top = 0
  Caption = 'Cadastro'
  object Button1: TButton
    Caption = 'OK'
  end
  object Query1: TADOQuery
    Connection = Conn1
  end
  object DBGrid1: TDBGrid
    DataSource = DataSource1
  end
  object DBEdit1: TDBEdit
    DataSource = DataSource1
  end
end
`

func TestParse_FormAndComponents(t *testing.T) {
	form := Parse("Unit4.dfm", sampleDFM)
	if form == nil {
		t.Fatal("Parse() = nil")
	}

	if form.Name != "Form4" {
		t.Errorf("Name = %q, want Form4", form.Name)
	}
	if form.FilePath != "Unit4.dfm" {
		t.Errorf("FilePath = %q", form.FilePath)
	}
	if len(form.Components) != 4 {
		t.Fatalf("Components = %+v, want 4", form.Components)
	}
	if form.Components[0].Name != "Button1" || form.Components[0].Type != "TButton" {
		t.Errorf("Components[0] = %+v", form.Components[0])
	}
}

func TestParse_DataAwareFlag(t *testing.T) {
	form := Parse("Unit4.dfm", sampleDFM)
	if form == nil {
		t.Fatal("Parse() = nil")
	}

	for _, c := range form.Components {
		wantAware := c.Type == "TDBGrid" || c.Type == "TDBEdit"
		if c.DataAware != wantAware {
			t.Errorf("%s (%s) DataAware = %v, want %v", c.Name, c.Type, c.DataAware, wantAware)
		}
	}
}

func TestParse_QueriesAndDataSources(t *testing.T) {
	form := Parse("Unit4.dfm", sampleDFM)
	if form == nil {
		t.Fatal("Parse() = nil")
	}

	if !reflect.DeepEqual(form.Queries, []string{"Query1"}) {
		t.Errorf("Queries = %v, want [Query1]", form.Queries)
	}
	// DataSource1 is referenced twice but reported once.
	if !reflect.DeepEqual(form.DataSources, []string{"DataSource1"}) {
		t.Errorf("DataSources = %v, want [DataSource1]", form.DataSources)
	}
}

func TestParse_NoObjectTree(t *testing.T) {
	if form := Parse("empty.dfm", "just some text\n"); form != nil {
		t.Errorf("Parse() = %+v, want nil", form)
	}
}
